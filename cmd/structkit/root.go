package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"structkit/internal/config"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	metrics    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "structkit",
		Short: "Publish and browse documents in blob storage",
		Long: `structkit archives documents into a blob store (local directory, S3 or
memory), records every publication in a SQL ledger and renders what is
stored as a tree.`,
		// SilenceUsage is set to true to prevent printing usage message on errors
		// handled by us (e.g. missing files, failed stages)
		SilenceUsage: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (defaults plus STRUCTKIT_* env when empty)")
	cmd.PersistentFlags().BoolVar(&opts.metrics, "metrics", false, "print collected metrics after the command")

	cmd.AddCommand(newPublishCmd(opts))
	cmd.AddCommand(newTreeCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newRolesCmd())
	return cmd
}

// withApp loads configuration, builds the app, runs fn and tears it down.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*app) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()
	runErr := fn(a)
	if opts.metrics {
		if err := a.dumpMetrics(cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return runErr
}
