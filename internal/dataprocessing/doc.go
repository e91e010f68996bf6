// Package dataprocessing turns loosely structured invoice exports into a
// canonical sales dataset and computes the dashboard aggregates from it.
//
// # Architecture
//
// The package is organized leaf first:
//
//  1. ParseNumber: locale-agnostic number parsing ("1,234.56" and "1.234,56")
//  2. DateResolver: date cells, spreadsheet serials and filename date tags
//  3. BuildHeaderMap: header synonyms onto the canonical schema
//  4. Normalizer: raw records or header+matrix rows into SalesLine values
//  5. FilterRows: AND-combined filter criteria
//  6. Aggregator: KPIs, top-N leaderboards, monthly rollup
//  7. PercentOfTotal: share of a filtered aggregate in the baseline
//
// # Usage
//
//	n := dataprocessing.NewNormalizer(dataprocessing.NewDateResolver(dataprocessing.DatePriorityFilename), logger)
//	res := n.NormalizeRecords(ctx, records)
//
//	agg := dataprocessing.NewAggregator(dataprocessing.AggregatorConfig{TopN: 20})
//	baseline := agg.Aggregate(res.Lines)
//	filtered := agg.Aggregate(dataprocessing.FilterRows(res.Lines, criteria))
//	share := dataprocessing.PercentOfTotal(filtered, baseline)
//
// # Data Flow
//
//	Source payload → HeaderMap (once per load) → Normalizer → []SalesLine
//	[]SalesLine → FilterRows → Aggregator → PercentOfTotal(baseline)
//
// # Error Handling
//
// Nothing in this package fails a load. Missing columns and unparseable
// values fall back to empty strings, 0 and nil dates; NormalizeStats counts
// them so callers can log or expose the numbers.
//
// # Thread Safety
//
// All functions are pure over their inputs. SalesLine slices returned by the
// normalizer are never modified afterwards and may be shared between goroutines.
package dataprocessing
