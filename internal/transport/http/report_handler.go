package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"salesdash/internal/dataset"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/exporter"
	appmw "salesdash/internal/middleware"
	"salesdash/internal/services"
	"salesdash/pkg/contracts/domain"
)

const maxRowsLimit = 100000

// ReportHandler serves reports, dataset views and CSV exports.
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *appmw.ValidationMiddleware
	query        *appmw.QueryParamValidator
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
		validation:   appmw.NewValidationMiddleware(logger),
		query:        appmw.NewQueryParamValidator(errorHandler),
	}
}

// ReportRequest is the POST body for /report.
type ReportRequest struct {
	domain.FilterCriteria
	IncludeRows bool `json:"include_rows"`
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validation.LimitBody)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/report", h.GetReport)
		r.Post("/report", h.PostReport)

		r.Route("/dataset", func(r chi.Router) {
			r.Get("/", h.GetRows)
			r.Get("/options", h.GetOptions)
			r.Get("/status", h.GetStatus)
			r.Post("/refresh", h.Refresh)
		})

		r.Get("/items/{code}/images", h.GetImages)
		r.Get("/export/boards", h.ListBoards)
	})

	r.Get("/export/rows.csv", h.ExportRows)
	r.Get("/export/boards/{board}.csv", h.ExportBoard)

	return r
}

// criteriaFromQuery reads filter criteria from query parameters. Both
// yearMonth and year_month are accepted for the month.
func criteriaFromQuery(r *http.Request) domain.FilterCriteria {
	q := r.URL.Query()
	month := q.Get("yearMonth")
	if month == "" {
		month = q.Get("year_month")
	}
	search := q.Get("q")
	if search == "" {
		search = q.Get("search")
	}
	return normalizeCriteria(domain.FilterCriteria{
		Type:        q.Get("type"),
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		YearMonth:   month,
		Supplier:    q.Get("supplier"),
		SearchText:  search,
	})
}

func normalizeCriteria(c domain.FilterCriteria) domain.FilterCriteria {
	c.Type = strings.ToUpper(strings.TrimSpace(c.Type))
	c.Category = strings.TrimSpace(c.Category)
	c.Subcategory = strings.TrimSpace(c.Subcategory)
	c.YearMonth = strings.TrimSpace(c.YearMonth)
	c.Supplier = strings.TrimSpace(c.Supplier)
	c.SearchText = strings.TrimSpace(c.SearchText)
	return c
}

// criteria parses and validates the query filter, writing the error response
// itself on failure.
func (h *ReportHandler) criteria(w http.ResponseWriter, r *http.Request) (domain.FilterCriteria, bool) {
	c := criteriaFromQuery(r)
	if err := h.validation.ValidateStruct(c); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return c, false
	}
	return c, true
}

// handleServiceError maps dataset and service errors onto API errors.
func (h *ReportHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dataset.ErrNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotLoaded)
	case errors.Is(err, dataset.ErrRefreshInProgress):
		h.errorHandler.HandleError(w, r, apierrors.ErrRefreshInProgress)
	case errors.Is(err, services.ErrInvalidBoard):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("board", err.Error()))
	case errors.Is(err, apierrors.ErrSourceUnavailable), errors.Is(err, apierrors.ErrShapeMismatch):
		h.errorHandler.HandleError(w, r, apierrors.RefreshFailed(err))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// GetReport handles GET /api/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}
	withRows, ok := h.query.ValidateBool(w, r, "rows", false)
	if !ok {
		return
	}
	h.writeReport(w, r, criteria, withRows)
}

// PostReport handles POST /api/report with the criteria in the body.
func (h *ReportHandler) PostReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	req.FilterCriteria = normalizeCriteria(req.FilterCriteria)
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeReport(w, r, req.FilterCriteria, req.IncludeRows)
}

func (h *ReportHandler) writeReport(w http.ResponseWriter, r *http.Request, criteria domain.FilterCriteria, withRows bool) {
	result, err := h.service.Report(r.Context(), criteria, withRows)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "report computed",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("rows", result.RowCount),
		slog.Bool("filtered", !criteria.IsEmpty()),
	)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// GetRows handles GET /api/dataset. limit caps the rows returned while count
// always reports the full match count.
func (h *ReportHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, maxRowsLimit, 0)
	if !ok {
		return
	}

	rows, err := h.service.Rows(r.Context(), criteria)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	count := len(rows)
	if limit > 0 && limit < count {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []domain.SalesLine{}
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  count,
	})
}

// GetOptions handles GET /api/dataset/options
func (h *ReportHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   opts,
	})
}

// GetStatus handles GET /api/dataset/status
func (h *ReportHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Status(r.Context()),
	})
}

// Refresh handles POST /api/dataset/refresh. A failed refresh still reports
// the dataset that remains in service.
func (h *ReportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "manual refresh requested", slog.String("request_id", reqID))

	status, err := h.service.Refresh(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "manual refresh failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   status,
	})
}

// GetImages handles GET /api/items/{code}/images
func (h *ReportHandler) GetImages(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if err := h.validation.ValidateStruct(struct {
		Code string `json:"code" validate:"itemcode"`
	}{code}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Images(code),
	})
}

// ListBoards handles GET /api/export/boards
func (h *ReportHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   exporter.Boards(),
	})
}

// ExportRows handles GET /api/export/rows.csv
func (h *ReportHandler) ExportRows(w http.ResponseWriter, r *http.Request) {
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	n, err := h.service.ExportRows(r.Context(), &buf, criteria)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "rows exported",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("rows", n),
	)
	writeCSV(w, "sales-rows", &buf)
}

// ExportBoard handles GET /api/export/boards/{board}.csv
func (h *ReportHandler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	board, ok := h.query.ValidateEnum(w, r, "board", chi.URLParam(r, "board"), exporter.Boards(), "")
	if !ok {
		return
	}
	if board == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("board", "board is required"))
		return
	}
	criteria, ok := h.criteria(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportLeaderboard(r.Context(), &buf, criteria, board); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeCSV(w, board, &buf)
}

func writeCSV(w http.ResponseWriter, name string, buf *bytes.Buffer) {
	filename := fmt.Sprintf("%s-%s.csv", name, time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
