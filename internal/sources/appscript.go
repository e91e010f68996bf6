package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"salesdash/internal/dataprocessing"
	apperrors "salesdash/internal/errors"
)

// maxBodyBytes bounds the JSON body read from a web endpoint.
const maxBodyBytes = 64 << 20

// AppScriptSource reads the JSON published by a spreadsheet web app.
type AppScriptSource struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewAppScriptSource creates a JSON source for url. A nil client gets a
// 30 second timeout.
func NewAppScriptSource(url string, client *http.Client, logger *slog.Logger) *AppScriptSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AppScriptSource{
		url:    url,
		client: client,
		logger: logger.With(slog.String("component", "appscript_source")),
	}
}

// Name implements Source.
func (s *AppScriptSource) Name() string { return "appscript:" + s.url }

// Fetch implements Source.
func (s *AppScriptSource) Fetch(ctx context.Context) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("build request", err).WithContext("source", s.Name())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("fetch failed", err).WithContext("source", s.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewSourceUnavailableError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).WithContext("source", s.Name())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("read body", err).WithContext("source", s.Name())
	}

	p, err := decodeJSONPayload(body)
	if err != nil {
		return nil, err
	}
	p.Source = s.Name()

	s.logger.InfoContext(ctx, "fetched json rows",
		slog.Int("rows", p.Len()),
		slog.Duration("duration", time.Since(start)))
	return p, nil
}

// decodeJSONPayload accepts a bare array or an object wrapping one under
// "data" or "rows". An array of objects is a record payload. An array of
// arrays is a matrix whose first row is the header.
func decodeJSONPayload(body []byte) (*Payload, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.NewShapeMismatchError("body is not JSON", err)
	}

	if obj, ok := doc.(map[string]any); ok {
		switch {
		case obj["data"] != nil:
			doc = obj["data"]
		case obj["rows"] != nil:
			doc = obj["rows"]
		default:
			return nil, apperrors.NewShapeMismatchError("object has no data or rows array", nil)
		}
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, apperrors.NewShapeMismatchError(fmt.Sprintf("expected array, got %T", doc), nil)
	}
	if len(items) == 0 {
		return &Payload{Records: []dataprocessing.RawRecord{}}, nil
	}

	if _, isRow := items[0].([]any); isRow {
		return decodeMatrix(items)
	}

	records := make([]dataprocessing.RawRecord, 0, len(items))
	for i, it := range items {
		rec, ok := it.(map[string]any)
		if !ok {
			return nil, apperrors.NewShapeMismatchError(fmt.Sprintf("row %d is %T, not an object", i, it), nil)
		}
		records = append(records, rec)
	}
	return &Payload{Records: records}, nil
}

func decodeMatrix(items []any) (*Payload, error) {
	head, _ := items[0].([]any)
	header := make([]string, len(head))
	for i, h := range head {
		header[i] = fmt.Sprint(h)
		if h == nil {
			header[i] = ""
		}
	}
	rows := make([][]any, 0, len(items)-1)
	for i, it := range items[1:] {
		row, ok := it.([]any)
		if !ok {
			return nil, apperrors.NewShapeMismatchError(fmt.Sprintf("row %d is %T, not an array", i+1, it), nil)
		}
		rows = append(rows, row)
	}
	return &Payload{Header: header, Rows: rows}, nil
}
