package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"structkit/internal/archive"
)

type publishOptions struct {
	name        string
	contentType string
	metadata    map[string]string
}

func newPublishCmd(root *rootOptions) *cobra.Command {
	opts := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish FILE...",
		Short: "Archive files and record them in the ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.name != "" && len(args) > 1 {
				return fmt.Errorf("--name needs exactly one file, got %d", len(args))
			}
			return withApp(cmd, root, func(a *app) error {
				for _, path := range args {
					if err := publishFile(cmd, a, path, opts); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "document name (defaults to the file's base name)")
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "content type (detected when empty)")
	cmd.Flags().StringToStringVar(&opts.metadata, "meta", nil, "user metadata as key=value pairs")
	return cmd
}

func publishFile(cmd *cobra.Command, a *app, path string, opts *publishOptions) (err error) {
	ctx := cmd.Context()
	start := time.Now()
	defer func() { a.observe(ctx, "cli.publish", start, err) }()

	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := opts.name
	if name == "" {
		name = filepath.Base(path)
	}
	res, err := a.publisher.Publish(ctx, archive.Document{
		Name:        name,
		Body:        body,
		ContentType: opts.contentType,
		Metadata:    opts.metadata,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", res.Receipt.Key, res.EntryID, res.Description)
	return err
}
