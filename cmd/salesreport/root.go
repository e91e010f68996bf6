package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"salesdash/internal/app"
	"salesdash/internal/config"
	"salesdash/internal/dataprocessing"
	"salesdash/internal/dataset"
	"salesdash/internal/middleware"
	"salesdash/internal/validation"
	"salesdash/pkg/contracts/domain"
)

// options holds the flags shared by every subcommand.
type options struct {
	urls       []string
	xlsxPath   string
	xlsxSheet  string
	xlsPath    string
	sheetID    string
	sheetRange string
	creds      string
	apiKey     string
	timeout    time.Duration

	datePriority string
	topN         int
	verbose      bool

	criteria domain.FilterCriteria
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "salesreport",
		Short: "Normalize and summarize invoice line data",
		Long: `salesreport loads invoice lines from Apps Script JSON endpoints, a Google
Sheet or local xlsx/xls workbooks, normalizes them and prints report data.

Source flags override the SALESDASH_SOURCES_* environment. Examples:
  salesreport summary --url https://script.google.com/macros/s/.../exec
  salesreport summary --xlsx sales.xlsx --type A --month 2024-03
  salesreport export --xlsx sales.xlsx --board clients-a-value -o top.csv
  salesreport headers --xls legacy.xls`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringArrayVar(&opts.urls, "url", nil, "Apps Script JSON endpoint (repeatable, tried in order)")
	pf.StringVar(&opts.xlsxPath, "xlsx", "", "path to an xlsx workbook")
	pf.StringVar(&opts.xlsxSheet, "xlsx-sheet", "", "worksheet name (default: first sheet)")
	pf.StringVar(&opts.xlsPath, "xls", "", "path to a legacy xls workbook")
	pf.StringVar(&opts.sheetID, "sheet-id", "", "Google spreadsheet id")
	pf.StringVar(&opts.sheetRange, "sheet-range", "", "Google Sheets A1 range")
	pf.StringVar(&opts.creds, "credentials", "", "Google service account credentials file")
	pf.StringVar(&opts.apiKey, "api-key", "", "Google API key")
	pf.DurationVar(&opts.timeout, "timeout", 0, "fetch timeout (default from config)")
	pf.StringVar(&opts.datePriority, "date-priority", "", "date resolution order: filename-first or cell-first")
	pf.IntVar(&opts.topN, "top", 0, "leaderboard length (default from config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to stderr")

	root.AddCommand(
		newSummaryCmd(opts),
		newExportCmd(opts),
		newHeadersCmd(opts),
	)
	return root
}

// addFilterFlags registers the filter criteria flags on cmd.
func addFilterFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.criteria.Type, "type", "", "invoice type: A, B or ALL")
	f.StringVar(&opts.criteria.Category, "category", "", "category")
	f.StringVar(&opts.criteria.Subcategory, "subcategory", "", "subcategory")
	f.StringVar(&opts.criteria.YearMonth, "month", "", "month as YYYY-MM")
	f.StringVar(&opts.criteria.Supplier, "supplier", "", "supplier")
	f.StringVarP(&opts.criteria.SearchText, "search", "q", "", "text search over client, phone, item and supplier")
}

// config starts from the environment when it is complete, otherwise from
// defaults, and applies the flags on top.
func (o *options) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	src := &cfg.Sources
	if len(o.urls) > 0 || o.xlsxPath != "" || o.xlsPath != "" || o.sheetID != "" {
		*src = config.SourcesConfig{
			JSONURLs:        o.urls,
			SheetID:         o.sheetID,
			SheetRange:      src.SheetRange,
			CredentialsFile: src.CredentialsFile,
			APIKey:          src.APIKey,
			XLSXPath:        o.xlsxPath,
			XLSXSheet:       o.xlsxSheet,
			XLSPath:         o.xlsPath,
			Timeout:         src.Timeout,
		}
	}
	if o.sheetRange != "" {
		src.SheetRange = o.sheetRange
	}
	if o.creds != "" {
		src.CredentialsFile = o.creds
	}
	if o.apiKey != "" {
		src.APIKey = o.apiKey
	}
	if o.timeout > 0 {
		src.Timeout = o.timeout
	}
	if o.datePriority != "" {
		cfg.Report.DatePriority = o.datePriority
	}
	if o.topN > 0 {
		cfg.Report.TopN = o.topN
	}

	if !src.Configured() {
		return nil, fmt.Errorf("no data source: pass --url, --xlsx, --xls or --sheet-id, or set %s_SOURCES_*", config.EnvPrefix)
	}
	if cfg.Report.TopN > config.MaxTopN {
		return nil, fmt.Errorf("--top must be at most %d", config.MaxTopN)
	}
	if _, err := dataprocessing.ParseDatePriority(cfg.Report.DatePriority); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	// Stdout carries the report, so logs go to stderr.
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// validCriteria normalizes and validates the filter flags.
func (o *options) validCriteria() (domain.FilterCriteria, error) {
	c := o.criteria
	c.Type = normalizeType(c.Type)
	if err := middleware.NewValidationMiddleware(nil).ValidateStruct(c); err != nil {
		return c, fmt.Errorf("invalid filter: %w", err)
	}
	return c, nil
}

// load builds the source from flags and loads one snapshot.
func (o *options) load(ctx context.Context, cmd *cobra.Command) (*dataset.Store, *config.Config, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, nil, err
	}
	logger := o.logger(cmd)

	files := validation.NewFileValidator(logger)
	if path := cfg.Sources.XLSXPath; path != "" {
		if err := files.ValidateWorkbook(path, validation.ExtXLSX); err != nil {
			return nil, nil, err
		}
	}
	if path := cfg.Sources.XLSPath; path != "" {
		if err := files.ValidateWorkbook(path, validation.ExtXLS); err != nil {
			return nil, nil, err
		}
	}

	src, err := app.BuildSource(ctx, cfg.Sources, logger)
	if err != nil {
		return nil, nil, err
	}
	store := dataset.NewStore(src, dataset.Config{
		TopN:         cfg.Report.TopN,
		DatePriority: cfg.DatePriority(),
		ImageBase:    cfg.Report.ImageBase,
		ImageExts:    cfg.Report.ImageExts,
	}, logger)

	ctx, cancel := context.WithTimeout(ctx, cfg.Refresh.Timeout)
	defer cancel()
	if _, err := store.Refresh(ctx); err != nil {
		return nil, nil, fmt.Errorf("load failed: %w", err)
	}
	return store, cfg, nil
}
