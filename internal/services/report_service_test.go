package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"salesdash/internal/dataprocessing"
	"salesdash/internal/dataset"
	apperrors "salesdash/internal/errors"
	"salesdash/internal/exporter"
	"salesdash/internal/shared/testutil"
	"salesdash/internal/sources"
	ws "salesdash/internal/websocket"
	"salesdash/pkg/contracts/domain"
)

// MockBroadcaster is a mock for the websocket hub.
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) BroadcastUpdate(updateType, subtype, action string, data any) {
	m.Called(updateType, subtype, action, data)
}

func (m *MockBroadcaster) BroadcastUpdateWithTrace(updateType, subtype, action string, data any, traceID string) {
	m.Called(updateType, subtype, action, data, traceID)
}

func (m *MockBroadcaster) ClientCount() int {
	return m.Called().Int(0)
}

type stubSource struct {
	mu      sync.Mutex
	payload *sources.Payload
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) (*sources.Payload, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload, s.err
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payload, s.err = nil, err
}

func samplePayload() *sources.Payload {
	raw := testutil.SampleRecords()
	recs := make([]dataprocessing.RawRecord, len(raw))
	for i, r := range raw {
		recs[i] = r
	}
	return &sources.Payload{Source: "stub", Records: recs}
}

func newService(t *testing.T, src sources.Source, hub ws.Broadcaster) (*ReportService, *dataset.Store) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	store := dataset.NewStore(src, dataset.Config{
		DatePriority: dataprocessing.DatePriorityFilename,
		ImageBase:    "/img/",
		ImageExts:    []string{".webp", ".jpg"},
	}, logger)
	svc := NewReportService(ReportServiceDeps{Store: store, Hub: hub, Logger: logger})
	return svc, store
}

func loadedService(t *testing.T) *ReportService {
	t.Helper()
	svc, store := newService(t, &stubSource{payload: samplePayload()}, nil)
	_, err := store.Refresh(context.Background())
	require.NoError(t, err)
	return svc
}

func TestReportService_NotLoaded(t *testing.T) {
	svc, _ := newService(t, &stubSource{payload: samplePayload()}, nil)
	ctx := context.Background()

	_, err := svc.Report(ctx, domain.FilterCriteria{}, false)
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)

	_, err = svc.Rows(ctx, domain.FilterCriteria{})
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)

	_, err = svc.Options(ctx)
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)

	_, err = svc.ExportRows(ctx, &bytes.Buffer{}, domain.FilterCriteria{})
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)

	status := svc.Status(ctx)
	assert.False(t, status.Loaded)
	assert.Nil(t, status.LoadedAt)
	assert.Zero(t, status.RowCount)
}

func TestReportService_Report(t *testing.T) {
	svc := loadedService(t)

	tests := []struct {
		name     string
		criteria domain.FilterCriteria
		withRows bool
		rows     int
		turnover float64
		percent  float64
	}{
		{name: "no filter", criteria: domain.FilterCriteria{}, rows: 4, turnover: 1509.56, percent: 100},
		{name: "type B", criteria: domain.FilterCriteria{Type: "B"}, withRows: true, rows: 1, turnover: 200, percent: 200 / 1509.56 * 100},
		{name: "no match", criteria: domain.FilterCriteria{Supplier: "Nobody"}, withRows: true, rows: 0, turnover: 0, percent: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Report(context.Background(), tt.criteria, tt.withRows)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, res.RowCount)
			assert.InDelta(t, tt.turnover, res.Aggregate.Turnover, 1e-9)
			assert.InDelta(t, tt.percent, res.PercentOfTotal, 1e-9)
			assert.Equal(t, 1509.56, res.Baseline.Turnover)
			if tt.withRows {
				assert.Len(t, res.Rows, tt.rows)
			} else {
				assert.Nil(t, res.Rows)
			}
		})
	}
}

func TestReportService_OptionsAndStatus(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	opts, err := svc.Options(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, opts.Types)

	status := svc.Status(ctx)
	assert.True(t, status.Loaded)
	require.NotNil(t, status.LoadedAt)
	assert.Equal(t, "stub", status.Source)
	assert.Equal(t, 4, status.RowCount)
	assert.Equal(t, 3, status.InvoiceCount)
	assert.Equal(t, 1509.56, status.Turnover)
	assert.Equal(t, "Customer", status.Headers["Client"])
}

func TestReportService_RefreshBroadcastsCompleted(t *testing.T) {
	hub := new(MockBroadcaster)
	hub.On("ClientCount").Return(2)
	hub.On("BroadcastUpdateWithTrace", ws.TypeDataset, ws.SubtypeRefresh, ws.ActionCompleted,
		mock.MatchedBy(func(s DatasetStatus) bool { return s.Loaded && s.RowCount == 4 }),
		mock.MatchedBy(func(id string) bool { return id != "" })).Return().Once()

	svc, _ := newService(t, &stubSource{payload: samplePayload()}, hub)

	status, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Loaded)
	assert.Equal(t, 2, status.WebSocketClients)
	hub.AssertExpectations(t)
}

func TestReportService_RefreshFailureKeepsSnapshot(t *testing.T) {
	src := &stubSource{payload: samplePayload()}
	hub := new(MockBroadcaster)
	hub.On("ClientCount").Return(0)
	hub.On("BroadcastUpdateWithTrace", ws.TypeDataset, ws.SubtypeRefresh, ws.ActionCompleted, mock.Anything, mock.Anything).Return().Once()
	hub.On("BroadcastUpdateWithTrace", ws.TypeDataset, ws.SubtypeRefresh, ws.ActionFailed,
		RefreshFailure{
			Error:     apperrors.NewShapeMismatchError("bad body", nil).Error(),
			ErrorCode: string(apperrors.ErrTypeShapeMismatch),
		}, mock.Anything).Return().Once()

	svc, _ := newService(t, src, hub)
	ctx := context.Background()
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	src.fail(apperrors.NewShapeMismatchError("bad body", nil))
	status, err := svc.Refresh(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrShapeMismatch)
	assert.True(t, status.Loaded, "previous snapshot still served")
	assert.Equal(t, 4, status.RowCount)
	hub.AssertExpectations(t)
}

func TestReportService_RefreshInProgress(t *testing.T) {
	src := &stubSource{payload: samplePayload(), block: make(chan struct{}), entered: make(chan struct{})}
	svc, store := newService(t, src, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.Refresh(context.Background())
	}()

	select {
	case <-src.entered:
	case <-time.After(time.Second):
		t.Fatal("refresh never started")
	}

	_, err := svc.Refresh(context.Background())
	assert.True(t, errors.Is(err, dataset.ErrRefreshInProgress))

	close(src.block)
	<-done
}

func TestReportService_ExportRows(t *testing.T) {
	svc := loadedService(t)

	var buf bytes.Buffer
	n, err := svc.ExportRows(context.Background(), &buf, domain.FilterCriteria{Type: "A"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exporter.LineHeaders, records[0])
}

func TestReportService_ExportLeaderboard(t *testing.T) {
	svc := loadedService(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, svc.ExportLeaderboard(ctx, &buf, domain.FilterCriteria{}, exporter.BoardSuppliersByValue))
	assert.Contains(t, buf.String(), "1,Power Ltd,1234.56")

	err := svc.ExportLeaderboard(ctx, &bytes.Buffer{}, domain.FilterCriteria{}, "nope")
	assert.ErrorIs(t, err, ErrInvalidBoard)
}

func TestReportService_Images(t *testing.T) {
	svc := loadedService(t)
	assert.Equal(t, []string{"/img/AB1.webp", "/img/AB1.jpg"}, svc.Images("AB1"))
	assert.Empty(t, svc.Images(""))
}
