// Package exporter writes sales lines and leaderboards as CSV.
//
// Output starts with a UTF-8 byte order mark so spreadsheet applications
// detect the encoding of Arabic and other non-ASCII client names.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("exports", logger)
//	err := w.WriteLines(os.Stdout, lines)
//
//	headers, records, err := exporter.Leaderboard(agg, exporter.BoardSuppliersByValue)
//	err = w.WriteCSV("suppliers.csv", exporter.WriteOptions{Headers: headers, Records: records, BOMPrefix: true})
package exporter
