package main

import (
	"github.com/spf13/cobra"

	"structkit/internal/logging"
	"structkit/internal/rolecheck"
)

func newRolesCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "roles [PATTERN...]",
		Short: "Report which types play each pattern role",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := rolecheck.Check(cmd.Context(), dir, args, logging.Discard())
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "module directory to load packages from")
	return cmd
}
