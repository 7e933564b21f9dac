/*
Package dsl builds block trees in Go code.

It is used for tests, examples and seeding documents without writing JSON by
hand:

	roots, err := dsl.New().
		Section("hero",
			dsl.Heading("title", "Welcome").Level(1),
			dsl.Container("cols",
				dsl.Button("cta").Label("Start").Style("color", "white"),
			),
		).
		Build()

Build checks id uniqueness only; nesting rules are enforced when the roots
are loaded into an editor.
*/
package dsl
