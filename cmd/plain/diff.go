package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/plain-reactive/plain/pkg/reconcile"
)

func diffCmd() *cobra.Command {
	var (
		strict  bool
		asJSON  bool
		literal bool
	)

	cmd := &cobra.Command{
		Use:   "diff <prev> <next>",
		Short: "Print the edit script between two markup files",
		Long: `Compute the edits that turn the previous markup into the next one.

Each line is one edit: insert, remove, replace-type, replace-attrs or
update-text, followed by the child-index path it applies to.

Examples:
  plain diff old.html new.html
  plain diff --literal '<p>A</p>' '<p>B</p>'
  plain diff --strict --json old.html new.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, next := args[0], args[1]
			if !literal {
				var err error
				if prev, err = readInput(cmd, prev); err != nil {
					return err
				}
				if next, err = readInput(cmd, next); err != nil {
					return err
				}
			}

			var opts []reconcile.Option
			if strict {
				opts = append(opts, reconcile.WithStrictAttributes())
			}
			ops, err := reconcile.New(opts...).Diff(prev, next)
			if err != nil {
				return err
			}
			return printOps(cmd.OutOrStdout(), ops, asJSON)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Compare attribute values, not only their count")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the edit script as JSON")
	cmd.Flags().BoolVarP(&literal, "literal", "l", false, "Treat arguments as markup instead of file names")

	return cmd
}

// readInput returns the contents of name, or stdin for "-".
func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(name)
	return string(data), err
}

func printOps(w io.Writer, ops []reconcile.EditOp, asJSON bool) error {
	if asJSON {
		if ops == nil {
			ops = []reconcile.EditOp{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ops)
	}
	for _, op := range ops {
		if _, err := fmt.Fprintln(w, op.String()); err != nil {
			return err
		}
	}
	return nil
}
