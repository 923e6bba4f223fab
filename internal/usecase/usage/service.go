// Package usage reports embedding token consumption against provider budgets.
package usage

import (
	"context"
	"sort"
	"time"

	domusage "github.com/kailas-cloud/colmap/internal/domain/usage"
)

// BudgetReader exposes the current window counters of one provider.
type BudgetReader interface {
	Counter(period domusage.Period) domusage.Counter
}

// Service handles usage reporting.
type Service struct {
	budgets map[string]BudgetReader
	now     func() time.Time
}

// New creates a Service over per-provider budgets. Providers without a
// budget are not reported.
func New(budgets map[string]BudgetReader) *Service {
	return &Service{budgets: budgets, now: time.Now}
}

// Reports returns one report per provider, sorted by provider name.
func (s *Service) Reports(_ context.Context, period domusage.Period) []domusage.Report {
	start, end := period.Bounds(s.now())

	providers := make([]string, 0, len(s.budgets))
	for name := range s.budgets {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	out := make([]domusage.Report, 0, len(providers))
	for _, name := range providers {
		c := s.budgets[name].Counter(period)
		out = append(out, domusage.Report{
			Provider:    name,
			Period:      period,
			PeriodStart: start,
			PeriodEnd:   end,
			TokensUsed:  c.Used,
			Limit:       c.Limit,
			Remaining:   c.Remaining,
			Exhausted:   c.Exhausted(),
		})
	}
	return out
}
