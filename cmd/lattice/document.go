package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/presentation/tui"
	"github.com/aretw0/lattice/pkg/codec"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var newCmd = &cobra.Command{
	Use:   "new [document-id]",
	Short: "Create an empty document",
	Long: `Creates an empty document. Without an id a random one is assigned.
With --from, the tree is imported from a JSON or YAML file; legacy builder
exports ("elements", "fields", "type", "props") are accepted and whatever
cannot be read is reported and skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, logger, closer, err := newManager(cmd)
		if err != nil {
			return err
		}
		defer closer()

		variant, _ := cmd.Flags().GetString("variant")
		title, _ := cmd.Flags().GetString("title")
		from, _ := cmd.Flags().GetString("from")

		doc := domain.NewDocument("", domain.Variant(variant))
		if from != "" {
			doc, err = importFile(from)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("variant") {
				doc.Variant = domain.Variant(variant)
			}
		}
		if doc.Variant != domain.VariantPage && doc.Variant != domain.VariantForm {
			return fmt.Errorf("unknown variant %q", doc.Variant)
		}
		if len(args) > 0 {
			doc.ID = args[0]
		}
		if title != "" {
			doc.Title = title
		}

		created, err := mgr.Create(cmd.Context(), doc)
		if err != nil {
			return err
		}
		logger.Info("Document created", "document", created.ID, "nodes", created.Tree().Count())
		fmt.Fprintln(cmd.OutOrStdout(), created.ID)
		return nil
	},
}

// importFile decodes a document file, reporting what the decoder dropped.
func importFile(path string) (*domain.Document, error) {
	format, err := codec.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, warnings, err := codec.Decode(data, format)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Error())
	}
	return doc, nil
}

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored documents",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, closer, err := newManager(cmd)
		if err != nil {
			return err
		}
		defer closer()

		ids, err := mgr.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No documents found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Print a document",
	Long: `Prints a document as an outline (default), json, yaml or a Mermaid
diagram. Outlines are rendered for the terminal when stdout is one.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, closer, err := newManager(cmd)
		if err != nil {
			return err
		}
		defer closer()

		doc, err := mgr.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return printDocument(cmd, doc, output)
	},
}

func printDocument(cmd *cobra.Command, doc *domain.Document, output string) error {
	out := cmd.OutOrStdout()
	switch output {
	case "outline":
		text := tui.Outline(doc)
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			width, _, err := term.GetSize(int(f.Fd()))
			if err != nil || width <= 0 {
				width = 80
			}
			render, err := tui.NewRenderer(width)
			if err == nil {
				if rendered, err := render(text); err == nil {
					text = rendered
				}
			}
		}
		_, err := fmt.Fprint(out, text)
		return err
	case "mermaid":
		_, err := fmt.Fprint(out, graph.GenerateMermaid(doc.Tree(), &graph.Overlay{SelectedID: doc.SelectedID}))
		return err
	default:
		format, err := codec.ParseFormat(output)
		if err != nil {
			return err
		}
		data, err := codec.Encode(doc, format)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		if err == nil && format == codec.FormatJSON {
			fmt.Fprintln(out)
		}
		return err
	}
}

var rmCmd = &cobra.Command{
	Use:   "rm <document-id>",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, logger, closer, err := newManager(cmd)
		if err != nil {
			return err
		}
		defer closer()

		if err := mgr.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("Document deleted", "document", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd, listCmd, showCmd, rmCmd)

	newCmd.Flags().String("variant", "page", "Document variant: page or form")
	newCmd.Flags().String("title", "", "Document title")
	newCmd.Flags().String("from", "", "Import the tree from a JSON or YAML file")

	showCmd.Flags().StringP("output", "o", "outline", "Output: outline, json, yaml or mermaid")
}
