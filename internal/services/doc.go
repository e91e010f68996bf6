// Package services implements the business logic layer of salesdash. It sits
// between the HTTP handlers and the dataset store.
//
// # Available Services
//
//   - ReportService: recompute, rows, filter options, refresh and CSV export
//   - RefreshScheduler: cron-driven dataset refreshes
//   - HealthService: liveness, readiness and version information
//
// # Common Service Pattern
//
//	type ServiceName struct {
//	    store  *dataset.Store
//	    logger *slog.Logger
//	}
//
//	func (s *ServiceName) Operation(ctx context.Context, in Input) (Output, error) {
//	    out, err := s.store.Something(in)
//	    if err != nil {
//	        s.logger.ErrorContext(ctx, "operation failed", slog.String("error", err.Error()))
//	        return Output{}, fmt.Errorf("operation failed: %w", err)
//	    }
//	    return out, nil
//	}
//
// # Error Handling
//
// Services return dataset sentinels (dataset.ErrNotLoaded,
// dataset.ErrRefreshInProgress) and AppErrors from the sources unchanged so
// handlers can map them onto problem responses.
//
// # Testing
//
// Collaborators at the edge are mocked with testify:
//
//	hub := new(MockBroadcaster)
//	hub.On("BroadcastUpdateWithTrace", "dataset", "refresh", "completed", mock.Anything, mock.Anything).Return()
package services
