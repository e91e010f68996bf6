package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdash/internal/dataprocessing"
	apperrors "salesdash/internal/errors"
	"salesdash/internal/shared/testutil"
	"salesdash/internal/sources"
	"salesdash/pkg/contracts/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	payload *sources.Payload
	err     error
	block   chan struct{}
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) (*sources.Payload, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payload, f.err
}

func (f *fakeSource) set(p *sources.Payload, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payload, f.err = p, err
}

func samplePayload() *sources.Payload {
	raw := testutil.SampleRecords()
	recs := make([]dataprocessing.RawRecord, len(raw))
	for i, r := range raw {
		recs[i] = r
	}
	return &sources.Payload{Source: "fake", Records: recs}
}

func newTestStore(src sources.Source) *Store {
	s := NewStore(src, Config{ImageBase: "/img/", ImageExts: []string{".webp"}}, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestStore_InitialSnapshot(t *testing.T) {
	s := newTestStore(&fakeSource{})

	assert.False(t, s.Loaded())
	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Baseline.InvoiceCount)

	_, err := s.Recompute(domain.FilterCriteria{}, false)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = s.Rows(domain.FilterCriteria{})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestStore_Refresh(t *testing.T) {
	s := newTestStore(&fakeSource{payload: samplePayload()})

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)

	assert.True(t, s.Loaded())
	assert.Same(t, snap, s.Snapshot())
	assert.Len(t, snap.Lines, 4)
	assert.Equal(t, 3, snap.Baseline.InvoiceCount)
	assert.Equal(t, 1509.56, snap.Baseline.Turnover)
	assert.Equal(t, "fake", snap.Source)
	assert.Equal(t, "Customer", snap.Headers["Client"])
	assert.Equal(t, 1, snap.Stats.EmptyRowsDropped)
	assert.Equal(t, []string{"Power", "Tools"}, snap.Options.Categories)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), snap.LoadedAt)
	assert.Equal(t, []string{"/img/EF3.webp"}, snap.Baseline.BestItems.ByValue[0].Images)
}

func TestStore_FailedRefreshKeepsSnapshot(t *testing.T) {
	src := &fakeSource{payload: samplePayload()}
	s := newTestStore(src)

	before, err := s.Refresh(context.Background())
	require.NoError(t, err)

	src.set(nil, apperrors.NewSourceUnavailableError("down", nil))
	_, err = s.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSourceUnavailable)

	assert.Same(t, before, s.Snapshot())
	assert.True(t, s.Loaded())
}

func TestStore_FailedFirstRefreshStaysUnloaded(t *testing.T) {
	s := newTestStore(&fakeSource{err: apperrors.NewShapeMismatchError("bad", nil)})

	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrShapeMismatch)
	assert.False(t, s.Loaded())
}

func TestStore_TryRefreshWhileRunning(t *testing.T) {
	src := &fakeSource{payload: samplePayload(), block: make(chan struct{})}
	s := newTestStore(src)

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	_, err := s.TryRefresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshInProgress)

	close(src.block)
	require.NoError(t, <-done)

	_, err = s.TryRefresh(context.Background())
	assert.NoError(t, err)
}

func TestStore_Recompute(t *testing.T) {
	s := newTestStore(&fakeSource{payload: samplePayload()})
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		withRows bool
		rowCount int
		turnover float64
		percent  float64
	}{
		{name: "no filter", criteria: domain.FilterCriteria{}, rowCount: 4, turnover: 1509.56, percent: 100},
		{name: "type B", criteria: domain.FilterCriteria{Type: "B"}, withRows: true, rowCount: 1, turnover: 200, percent: 200 / 1509.56 * 100},
		{name: "no match", criteria: domain.FilterCriteria{Supplier: "nobody"}, rowCount: 0, turnover: 0, percent: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Recompute(tt.criteria, tt.withRows)
			require.NoError(t, err)
			assert.Equal(t, tt.rowCount, res.RowCount)
			assert.InDelta(t, tt.turnover, res.Aggregate.Turnover, 1e-9)
			assert.InDelta(t, tt.percent, res.PercentOfTotal, 1e-9)
			assert.Equal(t, 1509.56, res.Baseline.Turnover)
			assert.Equal(t, tt.criteria, res.Criteria)
			if tt.withRows {
				assert.Len(t, res.Rows, tt.rowCount)
			} else {
				assert.Nil(t, res.Rows)
			}
		})
	}
}

func TestStore_ConcurrentReadsDuringRefresh(t *testing.T) {
	src := &fakeSource{payload: samplePayload()}
	s := newTestStore(src)
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res, err := s.Recompute(domain.FilterCriteria{}, false)
				if err != nil || res.RowCount != 4 || res.PercentOfTotal != 100 {
					failures.Add(1)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		_, err := s.Refresh(context.Background())
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Zero(t, failures.Load())
}

func TestStore_CancelledRefresh(t *testing.T) {
	src := &fakeSource{payload: samplePayload(), block: make(chan struct{})}
	s := newTestStore(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Refresh(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, s.Loaded())
}
