package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"structkit/internal/catalog"
)

func newTreeCmd(root *rootOptions) *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "tree [PREFIX]",
		Short: "Render stored documents as a tree with sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, root, func(a *app) error {
				prefix := a.cfg.Archive.Prefix
				if len(args) == 1 {
					prefix = args[0]
				}
				ctx := cmd.Context()
				tree, err := catalog.Build(ctx, a.store, prefix, catalog.Options{MaxDepth: maxDepth})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if err := catalog.Render(ctx, tree, out); err != nil {
					return err
				}
				total, err := catalog.TotalSize(ctx, tree)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "total %d bytes\n", total)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "refuse trees deeper than this (0 = unlimited)")
	return cmd
}
