package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shahjalal-bu/liveshare/internal/snippets"
)

func newSnippetsCmd(flags *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "snippets",
		Short: "Manage the local snippet box",
	}

	list := &cobra.Command{
		Use:   "list [query]",
		Short: "List snippets, optionally filtered by a substring query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			var found []snippets.Snippet
			if len(args) == 1 {
				found = a.Snippets.Search(ctx, args[0])
			} else {
				found = a.Snippets.List(ctx)
			}
			for _, s := range found {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %-10s %s\n",
					s.ID, s.Title, s.Language, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no snippets")
			}
			return nil
		},
	}

	var outPath string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export all snippets as a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.Snippets.Export(ctx)
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
	export.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Import snippets from a previously exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, _, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			n, err := a.Snippets.Import(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d snippet(s)\n", n)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Delete every snippet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, _, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Snippets.ClearAll(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "snippet box cleared")
			return nil
		},
	}

	root.AddCommand(list, export, imp, clear)
	return root
}
