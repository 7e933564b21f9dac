package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/lattice/pkg/domain"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Lattice banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _          _   _   _          ", "#818cf8"},
		{" | |    __ _| |_| |_(_) ___ ___ ", "#a78bfa"},
		{" | |   / _` | __| __| |/ __/ _ \\", "#c084fc"},
		{" | |__| (_| | |_| |_| | (_|  __/", "#e879f9"},
		{" |_____\\__,_|\\__|\\__|_|\\___\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// KindStyle colors a kind name by family.
func KindStyle(kind domain.Kind) termenv.Style {
	p := termenv.ColorProfile()
	s := termenv.String(string(kind))
	switch {
	case kind == domain.KindContainer || kind == domain.KindSection:
		return s.Foreground(p.Color("#818cf8")).Bold()
	case kind.IsField():
		return s.Foreground(p.Color("#f472b6"))
	default:
		return s.Foreground(p.Color("#a3e635"))
	}
}
