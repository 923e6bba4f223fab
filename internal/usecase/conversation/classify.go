package conversation

import (
	"regexp"
	"strings"
	"time"

	domfc "github.com/kailas-cloud/colmap/internal/domain/forecast"
)

// Action is the intent a request was classified as.
type Action string

const (
	ActionForecast Action = "forecast"
	ActionSimulate Action = "simulate"
	ActionRecall   Action = "recall"
	ActionUnknown  Action = "unknown"
)

type rule struct {
	pattern *regexp.Regexp
	action  Action
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{regexp.MustCompile(`(?i)(forecast|predict|projection|estimate)`), ActionForecast},
	{regexp.MustCompile(`(?i)(simulate|what if|scenario|impact|adjust)`), ActionSimulate},
	{regexp.MustCompile(`(?i)(recall|past|previous|history|show)`), ActionRecall},
}

// Classify maps free text to an action.
func Classify(text string) Action {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.action
		}
	}
	return ActionUnknown
}

var (
	nextQuarterRe = regexp.MustCompile(`next quarter`)
	nextMonthRe   = regexp.MustCompile(`next month`)
	quarterRe     = regexp.MustCompile(`q([1-4])\s*(20\d{2})`)
	yearRe        = regexp.MustCompile(`(20\d{2})`)

	// The product runs until a timeframe phrase, punctuation or the end of text.
	productRe = regexp.MustCompile(`(?i)\bfor\s+([\w\s-]+?)(?:\s+(?:next|in|during|over|this|last|q[1-4])\b|\s+20\d{2}\b|[^\w\s-]|$)`)

	adjustmentRe = regexp.MustCompile(`(?i)(increase|decrease)[^\d]*(\d+(?:\.\d+)?)%`)
)

const (
	dateLayout       = "2006-01-02"
	trailingDays     = 90
	granularityDay   = "day"
	granularityMonth = "month"
)

// ParseTimeframe extracts the forecast window relative to now (UTC).
// Window ends are the first day after the period. The forecast query's BETWEEN
// is inclusive, so that day is forecast too; stored runs already carry these
// bounds, so they are left as is.
func ParseTimeframe(text string, now time.Time) domfc.Timeframe {
	lower := strings.ToLower(text)
	now = now.UTC()

	switch {
	case nextQuarterRe.MatchString(lower):
		q := time.Date(now.Year(), time.Month((int(now.Month())-1)/3*3+1), 1, 0, 0, 0, 0, time.UTC)
		start := q.AddDate(0, 3, 0)
		return window(start, start.AddDate(0, 3, 0), granularityMonth)
	case nextMonthRe.MatchString(lower):
		start := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		return window(start, start.AddDate(0, 1, 0), granularityDay)
	}

	if m := quarterRe.FindStringSubmatch(lower); m != nil {
		quarter := int(m[1][0] - '0')
		year := atoi(m[2])
		start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
		return window(start, start.AddDate(0, 3, 0), granularityMonth)
	}
	if m := yearRe.FindStringSubmatch(lower); m != nil {
		start := time.Date(atoi(m[1]), time.January, 1, 0, 0, 0, 0, time.UTC)
		return window(start, start.AddDate(1, 0, 0), granularityMonth)
	}

	return window(now.AddDate(0, 0, -trailingDays), now, granularityDay)
}

// ParseProduct returns the product named by "for <product>", or "".
func ParseProduct(text string) string {
	m := productRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseAdjustment returns the signed percentage; default +10%.
func parseAdjustment(text string) (direction string, percent float64) {
	m := adjustmentRe.FindStringSubmatch(text)
	if m == nil {
		return "increase", 10
	}
	direction = strings.ToLower(m[1])
	if direction != "decrease" {
		direction = "increase"
	}
	percent = parseFloat(m[2])
	return direction, percent
}

func window(start, end time.Time, granularity string) domfc.Timeframe {
	return domfc.Timeframe{
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
		Granularity: granularity,
	}
}
