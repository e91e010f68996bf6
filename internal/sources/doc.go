// Package sources fetches raw invoice data for the dataset store.
//
// Every source returns a Payload in one of two shapes: keyed records (the
// Apps Script JSON export) or a header row plus a value matrix (Google
// Sheets, xlsx and xls workbooks). Chain tries several sources at once and
// keeps the result of the highest-priority one that succeeded.
package sources
