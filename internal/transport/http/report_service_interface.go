package http

import (
	"context"
	"io"

	"salesdash/internal/services"
	"salesdash/pkg/contracts/domain"
)

// ReportServiceInterface is the part of services.ReportService the handlers use.
type ReportServiceInterface interface {
	Report(ctx context.Context, criteria domain.FilterCriteria, withRows bool) (domain.ReportResult, error)
	Rows(ctx context.Context, criteria domain.FilterCriteria) ([]domain.SalesLine, error)
	Options(ctx context.Context) (domain.FilterOptions, error)
	Status(ctx context.Context) services.DatasetStatus
	Refresh(ctx context.Context) (services.DatasetStatus, error)
	ExportRows(ctx context.Context, w io.Writer, criteria domain.FilterCriteria) (int, error)
	ExportLeaderboard(ctx context.Context, w io.Writer, criteria domain.FilterCriteria, board string) error
	Images(code string) []string
}

var _ ReportServiceInterface = (*services.ReportService)(nil)
