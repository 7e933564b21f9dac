package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// parseAttrs turns key=value pairs into attributes. Values are read as YAML
// scalars, so "level=2" stores a number and "required=true" a bool.
func parseAttrs(pairs []string) (domain.Attributes, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	attrs := make(domain.Attributes, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q, want key=value", pair)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		attrs[key] = v
	}
	return attrs, nil
}

// runEdit applies fn to the stored document and prints the result.
func runEdit(cmd *cobra.Command, docID string, fn func(*lattice.Editor) error) error {
	mgr, _, closer, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer closer()

	doc, err := mgr.Edit(cmd.Context(), docID, fn)
	if err != nil {
		return err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return nil
	}
	output, _ := cmd.Flags().GetString("output")
	return printDocument(cmd, doc, output)
}

var insertCmd = &cobra.Command{
	Use:   "insert <document-id> <kind>",
	Short: "Insert a node",
	Long: `Inserts a new node of the given kind at the top level or, with --parent,
inside a container. Without --index the node is appended.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		id, _ := flags.GetString("id")
		parent, _ := flags.GetString("parent")
		index, _ := flags.GetInt("index")
		pairs, _ := flags.GetStringArray("attr")

		attrs, err := parseAttrs(pairs)
		if err != nil {
			return err
		}
		if !flags.Changed("index") {
			index = math.MaxInt
		}
		node := domain.Node{ID: domain.ID(id), Kind: domain.Kind(args[1]), Attributes: attrs}
		return runEdit(cmd, args[0], func(ed *lattice.Editor) error {
			_, err := ed.Insert(index, node, domain.ID(parent))
			return err
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <document-id> <node-id>",
	Short: "Remove a node and its subtree",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args[0], func(ed *lattice.Editor) error {
			_, err := ed.Remove(domain.ID(args[1]))
			return err
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <document-id> <node-id>",
	Short: "Merge attributes into a node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, _ := cmd.Flags().GetStringArray("attr")
		unset, _ := cmd.Flags().GetStringSlice("unset")

		patch, err := parseAttrs(pairs)
		if err != nil {
			return err
		}
		if patch == nil {
			patch = domain.Attributes{}
		}
		for _, key := range unset {
			patch[key] = nil
		}
		if len(patch) == 0 {
			return fmt.Errorf("nothing to update, use --attr or --unset")
		}
		return runEdit(cmd, args[0], func(ed *lattice.Editor) error {
			_, err := ed.Update(domain.ID(args[1]), patch)
			return err
		})
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <document-id> <active-id> <over-id>",
	Short: "Move a node next to, or into, another node",
	Long: `Moves the active node to the position of the over node, as a drag and
drop would. With --inside the active node becomes the last child of the
over node. A move that breaks the tree is rolled back and reported.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		inside, _ := cmd.Flags().GetBool("inside")
		return runEdit(cmd, args[0], func(ed *lattice.Editor) error {
			_, err := ed.Move(domain.ID(args[1]), domain.ID(args[2]), inside)
			return err
		})
	},
}

var selectCmd = &cobra.Command{
	Use:   "select <document-id> [node-id]",
	Short: "Select a node, or clear the selection",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, args[0], func(ed *lattice.Editor) error {
			if len(args) == 1 {
				ed.ClearSelection()
				return nil
			}
			_, err := ed.Select(domain.ID(args[1]))
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{insertCmd, removeCmd, updateCmd, moveCmd, selectCmd} {
		c.Flags().StringP("output", "o", "outline", "Output: outline, json, yaml or mermaid")
		c.Flags().BoolP("quiet", "q", false, "Do not print the document after editing")
		rootCmd.AddCommand(c)
	}

	insertCmd.Flags().String("id", "", "Node id (generated when empty)")
	insertCmd.Flags().String("parent", "", "Parent node id (top level when empty)")
	insertCmd.Flags().Int("index", 0, "Position among the siblings (appends when omitted)")
	insertCmd.Flags().StringArray("attr", nil, "Attribute as key=value (repeatable)")

	updateCmd.Flags().StringArray("attr", nil, "Attribute as key=value (repeatable)")
	updateCmd.Flags().StringSlice("unset", nil, "Attribute keys to delete")

	moveCmd.Flags().Bool("inside", false, "Drop into the over node instead of next to it")
}
