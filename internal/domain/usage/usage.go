// Package usage describes embedding token consumption reports.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/colmap/internal/domain"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name; empty selects PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("%w: period must be %q or %q, got %q", domain.ErrInvalidInput, PeriodDay, PeriodMonth, s)
	}
}

// Bounds returns the UTC window of the period containing now.
func (p Period) Bounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	if p == PeriodMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the token budget state of one provider for one period.
// A zero Limit means unlimited.
type Report struct {
	Provider    string    `json:"provider"`
	Period      Period    `json:"period"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	TokensUsed  int64     `json:"tokensUsed"`
	Limit       int64     `json:"limit"`
	Remaining   int64     `json:"remaining"`
	Exhausted   bool      `json:"exhausted"`
}

// Counter is the consumption of one budget window. Remaining is -1 when the
// window has no limit.
type Counter struct {
	Used      int64
	Limit     int64
	Remaining int64
}

// Exhausted reports whether a limited window has no tokens left.
func (c Counter) Exhausted() bool {
	return c.Limit > 0 && c.Used >= c.Limit
}
