package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/debtbook/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var format string
	registry := importer.DefaultRegistry()

	cmd := &cobra.Command{
		Use:   "import [file.csv...]",
		Short: "Load records from CSV into the book",
		Long: "Load records from the given CSV files. With no arguments, every CSV in\n" +
			"the book's import/ directory is loaded and moved to import/processed/.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}

			parser := registry.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q (available: %s)", format, strings.Join(registry.Formats(), ", "))
			}

			fromInbox := len(args) == 0
			paths := args
			if fromInbox {
				files, err := importer.Scan(a.root)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to import")
				return nil
			}

			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			for _, path := range paths {
				b, err := parseFile(parser, path)
				if err != nil {
					return err
				}
				for _, w := range b.Warnings {
					a.log.Warn("coerced import value", "file", path, "row", w.Row, "column", w.Column, "error", w.Err)
				}
				if err := st.InsertRecords(ctx, b.Records); err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
				if fromInbox {
					if err := importer.MarkProcessed(a.root, filepath.Base(path)); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records from %s (%d warnings)\n",
					len(b.Records), filepath.Base(path), len(b.Warnings))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "records",
		"input format, one of: "+strings.Join(registry.Formats(), ", "))

	return cmd
}

func parseFile(p importer.Parser, path string) (importer.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Batch{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	b, err := p.Parse(f)
	if err != nil {
		return importer.Batch{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return b, nil
}
