package lattice

import _ "embed"

// Version is the release of the library and the lattice CLI.
//
//go:embed VERSION
var Version string
