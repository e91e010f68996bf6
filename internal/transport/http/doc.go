// Package http implements the HTTP handlers of the sales dashboard. Handlers
// stay thin: they parse and validate the request, call the report service and
// render the result.
//
// # Routes
//
// ReportHandler is mounted under /api:
//
//	GET  /report                    aggregate for the query filter (rows=true adds lines)
//	POST /report                    same, with the filter as a JSON body
//	GET  /dataset                   filtered lines, optional limit
//	GET  /dataset/options           distinct values for the filter controls
//	GET  /dataset/status            what is loaded, from where and when
//	POST /dataset/refresh           reload from the configured sources
//	GET  /items/{code}/images       candidate image URLs for an item
//	GET  /export/rows.csv           filtered lines as CSV
//	GET  /export/boards             available leaderboard exports
//	GET  /export/boards/{board}.csv one leaderboard as CSV
//
// HealthHandler serves /healthz, /readyz and /version at the root.
//
// # Filter parameters
//
// type, category, subcategory, yearMonth (or year_month), supplier and q.
// Empty parameters impose no constraint. type is matched case-insensitively
// and ALL selects both invoice types.
//
// # Responses
//
// Successful JSON responses use the envelope
//
//	{"status": "success", "data": ...}
//
// and errors are RFC 7807 problem documents carrying an error_code extension,
// for example DATASET_NOT_LOADED (503) before the first load completes or
// REFRESH_IN_PROGRESS (409) when a reload is already running.
package http
