package dataset

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"salesdash/internal/dataprocessing"
	"salesdash/internal/sources"
	"salesdash/pkg/contracts/domain"
)

var (
	// ErrNotLoaded is returned by reads before the first successful refresh.
	ErrNotLoaded = errors.New("dataset not loaded")
	// ErrRefreshInProgress is returned by TryRefresh while another refresh runs.
	ErrRefreshInProgress = errors.New("dataset refresh in progress")
)

// Config controls how loads are normalized and aggregated.
type Config struct {
	TopN         int
	DatePriority dataprocessing.DatePriority
	ImageBase    string
	ImageExts    []string
}

// Snapshot is one complete load. It is never modified after publication.
type Snapshot struct {
	Lines    []domain.SalesLine
	Baseline domain.Aggregate
	Options  domain.FilterOptions
	Headers  map[string]string
	Stats    dataprocessing.NormalizeStats
	Source   string
	LoadedAt time.Time
}

// Loaded reports whether the snapshot came from a successful refresh.
func (s *Snapshot) Loaded() bool {
	return !s.LoadedAt.IsZero()
}

// Store owns the current snapshot and the pipeline that builds new ones.
type Store struct {
	source     sources.Source
	normalizer *dataprocessing.Normalizer
	aggregator *dataprocessing.Aggregator
	imageBase  string
	imageExts  []string
	logger     *slog.Logger

	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
	now       func() time.Time
}

// NewStore creates a store over src with an empty, unloaded snapshot.
func NewStore(src sources.Source, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dataset_store"))

	s := &Store{
		source:     src,
		normalizer: dataprocessing.NewNormalizer(dataprocessing.NewDateResolver(cfg.DatePriority), logger),
		imageBase:  cfg.ImageBase,
		imageExts:  cfg.ImageExts,
		logger:     logger,
		now:        time.Now,
	}
	s.aggregator = dataprocessing.NewAggregator(dataprocessing.AggregatorConfig{
		TopN:       cfg.TopN,
		ItemImages: s.ImageCandidates,
	})
	s.current.Store(&Snapshot{
		Lines:    []domain.SalesLine{},
		Baseline: s.aggregator.Aggregate(nil),
		Options:  dataprocessing.FilterOptions(nil),
		Headers:  map[string]string{},
	})
	return s
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Loaded reports whether a refresh has succeeded.
func (s *Store) Loaded() bool {
	return s.current.Load().Loaded()
}

// Refresh fetches, normalizes and aggregates a new snapshot, then publishes
// it. Concurrent calls run one after another.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

// TryRefresh is Refresh that fails with ErrRefreshInProgress instead of
// waiting for a running refresh.
func (s *Store) TryRefresh(ctx context.Context) (*Snapshot, error) {
	if !s.refreshMu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

func (s *Store) refresh(ctx context.Context) (*Snapshot, error) {
	payload, err := s.source.Fetch(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "dataset refresh failed, keeping previous snapshot",
			slog.String("source", s.source.Name()),
			slog.String("error", err.Error()))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := payload.Normalize(ctx, s.normalizer)
	snap := &Snapshot{
		Lines:    res.Lines,
		Baseline: s.aggregator.Aggregate(res.Lines),
		Options:  dataprocessing.FilterOptions(res.Lines),
		Headers:  res.Headers.Resolved(),
		Stats:    res.Stats,
		Source:   payload.Source,
		LoadedAt: s.now().UTC(),
	}
	s.current.Store(snap)

	s.logger.InfoContext(ctx, "dataset refreshed",
		slog.String("source", snap.Source),
		slog.Int("rows", len(snap.Lines)),
		slog.Int("invoices", snap.Baseline.InvoiceCount),
		slog.Float64("turnover", snap.Baseline.Turnover))
	return snap, nil
}

// Recompute filters the current snapshot and aggregates the result against
// the snapshot's baseline. Nothing is cached between calls. Rows are only
// included when withRows is set.
func (s *Store) Recompute(criteria domain.FilterCriteria, withRows bool) (domain.ReportResult, error) {
	snap := s.current.Load()
	if !snap.Loaded() {
		return domain.ReportResult{}, ErrNotLoaded
	}

	rows := dataprocessing.FilterRows(snap.Lines, criteria)
	agg := s.aggregator.Aggregate(rows)

	result := domain.ReportResult{
		Criteria:       criteria,
		RowCount:       len(rows),
		Aggregate:      agg,
		Baseline:       snap.Baseline,
		PercentOfTotal: dataprocessing.PercentOfTotal(agg, snap.Baseline),
	}
	if withRows {
		result.Rows = rows
	}
	return result, nil
}

// Rows returns the lines of the current snapshot matching criteria.
func (s *Store) Rows(criteria domain.FilterCriteria) ([]domain.SalesLine, error) {
	snap := s.current.Load()
	if !snap.Loaded() {
		return nil, ErrNotLoaded
	}
	return dataprocessing.FilterRows(snap.Lines, criteria), nil
}

// ImageCandidates returns the configured image URLs for an item code.
func (s *Store) ImageCandidates(code string) []string {
	return dataprocessing.ImageCandidates(s.imageBase, s.imageExts, code)
}
