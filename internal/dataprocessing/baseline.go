package dataprocessing

import (
	"salesdash/pkg/contracts/domain"
)

// PercentOfTotal returns the filtered turnover as a percentage of the
// baseline (unfiltered) turnover, or 0 when the baseline turnover is 0.
func PercentOfTotal(filtered, baseline domain.Aggregate) float64 {
	if baseline.Turnover == 0 {
		return 0
	}
	return filtered.Turnover / baseline.Turnover * 100
}
