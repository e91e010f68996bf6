package sources

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "salesdash/internal/errors"
)

// XLSXSource reads a local workbook. An empty sheet name means the first
// sheet.
type XLSXSource struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewXLSXSource creates a workbook source.
func NewXLSXSource(path, sheet string, logger *slog.Logger) *XLSXSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSource{path: path, sheet: sheet, logger: logger.With(slog.String("component", "xlsx_source"))}
}

// Name implements Source.
func (s *XLSXSource) Name() string { return "xlsx:" + s.path }

// Fetch implements Source.
func (s *XLSXSource) Fetch(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("open workbook", err).WithContext("source", s.Name())
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, apperrors.NewShapeMismatchError("workbook has no sheets", nil).WithContext("source", s.Name())
	}

	// Raw values keep date cells as serials instead of their display text.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewShapeMismatchError("read sheet "+sheet, err).WithContext("source", s.Name())
	}

	p := matrixFromStrings(s.Name(), rows)
	s.logger.InfoContext(ctx, "read workbook",
		slog.String("sheet", sheet),
		slog.Int("rows", p.Len()))
	return p, nil
}
