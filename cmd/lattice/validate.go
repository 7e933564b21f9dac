package main

import (
	"fmt"

	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document-id]",
	Short: "Check a document against the nesting rules",
	Long: `Checks a stored document, or a file given with --file, for duplicate ids,
unknown kinds, forbidden nesting and attribute mismatches. Errors make the
command fail; warnings are only printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" && len(args) == 0 {
			return fmt.Errorf("give a document id or --file")
		}

		var doc *domain.Document
		if path != "" {
			var err error
			if doc, err = importFile(path); err != nil {
				return err
			}
		} else {
			mgr, _, closer, err := newManager(cmd)
			if err != nil {
				return err
			}
			defer closer()
			if doc, err = mgr.Get(cmd.Context(), args[0]); err != nil {
				return err
			}
		}

		table, err := loadRules(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		errs := 0
		for _, f := range validator.Check(doc, table) {
			fmt.Fprintln(out, f.String())
			if f.Severity == validator.SeverityError {
				errs++
			}
		}
		if errs > 0 {
			return fmt.Errorf("found %d errors", errs)
		}
		fmt.Fprintln(out, "Document is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().String("file", "", "Validate a JSON or YAML file instead of a stored document")
}
