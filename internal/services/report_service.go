package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"salesdash/internal/dataprocessing"
	"salesdash/internal/dataset"
	apperrors "salesdash/internal/errors"
	"salesdash/internal/exporter"
	"salesdash/internal/infrastructure"
	ws "salesdash/internal/websocket"
	"salesdash/pkg/contracts/domain"
)

// DatasetStatus describes the snapshot currently served.
type DatasetStatus struct {
	Loaded           bool                          `json:"loaded"`
	Source           string                        `json:"source,omitempty"`
	LoadedAt         *time.Time                    `json:"loaded_at,omitempty"`
	RowCount         int                           `json:"row_count"`
	InvoiceCount     int                           `json:"invoice_count"`
	Turnover         float64                       `json:"turnover"`
	Headers          map[string]string             `json:"headers,omitempty"`
	Stats            dataprocessing.NormalizeStats `json:"stats"`
	WebSocketClients int                           `json:"websocket_clients"`
}

// RefreshFailure is the payload of a failed refresh event.
type RefreshFailure struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code,omitempty"`
}

// ReportServiceDeps are the collaborators of a ReportService. Hub, Metrics
// and Tracer are optional.
type ReportServiceDeps struct {
	Store    *dataset.Store
	Hub      ws.Broadcaster
	Exporter *exporter.CSVWriter
	Metrics  *infrastructure.SalesMetrics
	Tracer   trace.Tracer
	Logger   *slog.Logger
}

// ReportService serves reports from the dataset store.
type ReportService struct {
	store    *dataset.Store
	hub      ws.Broadcaster
	exporter *exporter.CSVWriter
	metrics  *infrastructure.SalesMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewReportService creates a report service.
func NewReportService(deps ReportServiceDeps) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}
	csv := deps.Exporter
	if csv == nil {
		csv = exporter.NewCSVWriter("", logger)
	}
	return &ReportService{
		store:    deps.Store,
		hub:      deps.Hub,
		exporter: csv,
		metrics:  deps.Metrics,
		tracer:   tracer,
		logger:   logger.With(slog.String("service", "report")),
	}
}

// Report recomputes the aggregate for criteria against the current snapshot.
func (s *ReportService) Report(ctx context.Context, criteria domain.FilterCriteria, withRows bool) (domain.ReportResult, error) {
	ctx, span := s.tracer.Start(ctx, "report.recompute", trace.WithAttributes(
		attribute.String("filter.type", criteria.Type),
		attribute.String("filter.year_month", criteria.YearMonth),
		attribute.Bool("with_rows", withRows),
	))
	defer span.End()

	start := time.Now()
	result, err := s.store.Recompute(criteria, withRows)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.ReportResult{}, err
	}

	infrastructure.RecordRecompute(ctx, s.metrics, result.RowCount, !criteria.IsEmpty(), time.Since(start))
	span.SetAttributes(attribute.Int("rows", result.RowCount))

	s.logger.DebugContext(ctx, "report recomputed",
		slog.Int("rows", result.RowCount),
		slog.Float64("percent_of_total", result.PercentOfTotal),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// Rows returns the lines matching criteria.
func (s *ReportService) Rows(ctx context.Context, criteria domain.FilterCriteria) ([]domain.SalesLine, error) {
	return s.store.Rows(criteria)
}

// Options returns the distinct filter values of the current snapshot.
func (s *ReportService) Options(ctx context.Context) (domain.FilterOptions, error) {
	snap := s.store.Snapshot()
	if !snap.Loaded() {
		return domain.FilterOptions{}, dataset.ErrNotLoaded
	}
	return snap.Options, nil
}

// Status describes the current snapshot. It never fails.
func (s *ReportService) Status(ctx context.Context) DatasetStatus {
	return s.statusOf(s.store.Snapshot())
}

func (s *ReportService) statusOf(snap *dataset.Snapshot) DatasetStatus {
	status := DatasetStatus{
		Loaded:       snap.Loaded(),
		Source:       snap.Source,
		RowCount:     len(snap.Lines),
		InvoiceCount: snap.Baseline.InvoiceCount,
		Turnover:     snap.Baseline.Turnover,
		Headers:      snap.Headers,
		Stats:        snap.Stats,
	}
	if status.Loaded {
		loadedAt := snap.LoadedAt
		status.LoadedAt = &loadedAt
	}
	if s.hub != nil {
		status.WebSocketClients = s.hub.ClientCount()
	}
	return status
}

// Refresh reloads the dataset now. It fails fast with
// dataset.ErrRefreshInProgress when another refresh is running. Outcomes are
// broadcast to websocket clients.
func (s *ReportService) Refresh(ctx context.Context) (DatasetStatus, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	traceID := infrastructure.GetTraceID(ctx)

	ctx, span := s.tracer.Start(ctx, "dataset.refresh")
	defer span.End()

	start := time.Now()
	snap, err := s.store.TryRefresh(ctx)
	if errors.Is(err, dataset.ErrRefreshInProgress) {
		return DatasetStatus{}, err
	}
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		infrastructure.RecordRefresh(ctx, s.metrics, "", 0, duration, err)
		s.broadcast(ws.ActionFailed, RefreshFailure{
			Error:     err.Error(),
			ErrorCode: string(apperrors.TypeOf(err)),
		}, traceID)
		return s.Status(ctx), err
	}

	infrastructure.RecordRefresh(ctx, s.metrics, snap.Source, len(snap.Lines), duration, nil)
	span.SetAttributes(
		attribute.String("source", snap.Source),
		attribute.Int("rows", len(snap.Lines)),
	)

	status := s.statusOf(snap)
	s.broadcast(ws.ActionCompleted, status, traceID)
	return status, nil
}

func (s *ReportService) broadcast(action string, data any, traceID string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastUpdateWithTrace(ws.TypeDataset, ws.SubtypeRefresh, action, data, traceID)
}

// ExportRows writes the lines matching criteria as CSV and returns the count.
func (s *ReportService) ExportRows(ctx context.Context, w io.Writer, criteria domain.FilterCriteria) (int, error) {
	rows, err := s.store.Rows(criteria)
	if err != nil {
		return 0, err
	}
	n, err := s.exporter.WriteLines(w, rows)
	if err != nil {
		return n, fmt.Errorf("export rows: %w", err)
	}
	s.logger.InfoContext(ctx, "rows exported", slog.Int("rows", n))
	return n, nil
}

// ExportLeaderboard writes one leaderboard of the filtered aggregate as CSV.
func (s *ReportService) ExportLeaderboard(ctx context.Context, w io.Writer, criteria domain.FilterCriteria, board string) error {
	result, err := s.store.Recompute(criteria, false)
	if err != nil {
		return err
	}
	headers, records, err := exporter.Leaderboard(result.Aggregate, board)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidBoard, board)
	}
	return s.exporter.Write(w, exporter.WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
}

// Images returns candidate image URLs for an item code.
func (s *ReportService) Images(code string) []string {
	return s.store.ImageCandidates(code)
}
