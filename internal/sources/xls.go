package sources

import (
	"context"
	"log/slog"

	"github.com/extrame/xls"

	apperrors "salesdash/internal/errors"
)

// maxXLSRows caps how many rows are read from a legacy workbook.
const maxXLSRows = 100000

// XLSSource reads a legacy binary workbook. Rows of every sheet are read
// in sheet order, so the data is expected on a single sheet.
type XLSSource struct {
	path    string
	charset string
	logger  *slog.Logger
}

// NewXLSSource creates a legacy workbook source. Charset defaults to utf-8.
func NewXLSSource(path, charset string, logger *slog.Logger) *XLSSource {
	if charset == "" {
		charset = "utf-8"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSSource{path: path, charset: charset, logger: logger.With(slog.String("component", "xls_source"))}
}

// Name implements Source.
func (s *XLSSource) Name() string { return "xls:" + s.path }

// Fetch implements Source.
func (s *XLSSource) Fetch(ctx context.Context) (*Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := xls.Open(s.path, s.charset)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("open legacy workbook", err).WithContext("source", s.Name())
	}
	if wb.NumSheets() == 0 {
		return nil, apperrors.NewShapeMismatchError("workbook has no sheets", nil).WithContext("source", s.Name())
	}

	// Cells with built-in date formats come back as RFC 3339 strings; custom
	// formats come back as display text such as 03-15-23.
	p := matrixFromStrings(s.Name(), wb.ReadAllCells(maxXLSRows))
	s.logger.InfoContext(ctx, "read legacy workbook", slog.Int("rows", p.Len()))
	return p, nil
}
