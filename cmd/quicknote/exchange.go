package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote/pkg/core"
	"github.com/aretw0/quicknote/pkg/exchange"
)

func (a *app) newExportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every note to a file",
		Long: `Export every note in repository order. Without --out the file is
written to the working directory as quicknotes-YYYY-MM-DD.<ext>; use
--out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exchange.ParseFormat(format)
			if err != nil {
				return err
			}

			return a.withNotebook(cmd, func(svc *core.Service) error {
				now := time.Now()
				notes := svc.Notes()

				if out == "-" {
					return exchange.Export(cmd.OutOrStdout(), f, notes, now)
				}
				if out == "" {
					out = exchange.Filename(f, now)
				}
				if err := writeExport(out, f, notes, now); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d notes to %s\n", len(notes), out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(exchange.FormatJSON), "Export format (json, text, yaml, csv)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, - for stdout")
	return cmd
}

func writeExport(path string, f exchange.Format, notes []core.Note, now time.Time) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return exchange.Export(file, f, notes, now)
}

func (a *app) newImportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import notes from an export file",
		Long: `Import notes from a file produced by export, or - for stdin. Notes whose
id already exists are skipped; the rest are added in front of existing notes.
The format is detected from the file extension or content unless --format is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			f := exchange.DetectFormat(args[0], data)
			if format != "" {
				if f, err = exchange.ParseFormat(format); err != nil {
					return err
				}
			}

			return a.withNotebook(cmd, func(svc *core.Service) error {
				res, err := exchange.Import(cmd.Context(), svc, data, f)
				switch {
				case errors.Is(err, core.ErrInvalidImport):
					return fmt.Errorf("%s is not a valid %s export: %w", args[0], f, err)
				case errors.Is(err, core.ErrNoValidNotes):
					return fmt.Errorf("%s: %w", args[0], err)
				case err != nil:
					return err
				}

				skipped := res.Parsed - res.Added
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d notes (%d already present, %d invalid)\n",
					res.Added, skipped, res.Rejected)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (json, text, yaml, csv)")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
