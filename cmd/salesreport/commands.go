package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"salesdash/internal/dataprocessing"
	"salesdash/internal/exporter"
	"salesdash/internal/services"
	"salesdash/internal/validation"
)

func normalizeType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSummaryCmd(opts *options) *cobra.Command {
	var withRows bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the filtered aggregate and the baseline comparison as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := opts.validCriteria()
			if err != nil {
				return err
			}
			store, _, err := opts.load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			result, err := store.Recompute(criteria, withRows)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	addFilterFlags(cmd, opts)
	cmd.Flags().BoolVar(&withRows, "rows", false, "include the matching lines")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		board string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write matching lines or one leaderboard as CSV",
		Long: fmt.Sprintf(`Write the lines matching the filter as CSV, or a single leaderboard with --board.

Boards: %s`, strings.Join(exporter.Boards(), ", ")),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := opts.validCriteria()
			if err != nil {
				return err
			}
			toFile := out != "" && out != "-"
			if toFile {
				if err := validation.NewFileValidator(opts.logger(cmd)).ValidateExportPath(out); err != nil {
					return err
				}
			}
			store, _, err := opts.load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			svc := services.NewReportService(services.ReportServiceDeps{
				Store:  store,
				Logger: opts.logger(cmd),
			})

			w := cmd.OutOrStdout()
			if toFile {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if board != "" {
				return svc.ExportLeaderboard(cmd.Context(), w, criteria, board)
			}
			n, err := svc.ExportRows(cmd.Context(), w, criteria)
			if err != nil {
				return err
			}
			if toFile {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d rows written to %s\n", n, out)
			}
			return nil
		},
	}
	addFilterFlags(cmd, opts)
	cmd.Flags().StringVar(&board, "board", "", "leaderboard to export instead of the lines")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

// headerReport is what the headers command prints.
type headerReport struct {
	Source  string                        `json:"source"`
	Headers map[string]string             `json:"headers"`
	Stats   dataprocessing.NormalizeStats `json:"stats"`
}

func newHeadersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "headers",
		Short: "Show which source header each canonical field was mapped to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.load(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			snap := store.Snapshot()
			return writeJSON(cmd.OutOrStdout(), headerReport{
				Source:  snap.Source,
				Headers: snap.Headers,
				Stats:   snap.Stats,
			})
		},
	}
}
