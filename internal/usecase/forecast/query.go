package forecast

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/colmap/internal/domain"
)

// DefaultTable is the sales table queried when none is configured.
const DefaultTable = "sample_sales"

const dateLayout = "2006-01-02"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QueryParams selects the history window and optional product filter.
type QueryParams struct {
	StartDate string
	EndDate   string
	Product   string
	Table     string
}

// Query is parameterized SQL plus the named values it references.
type Query struct {
	SQL    string
	Params map[string]any
}

// BuildQuery renders the forecast SQL: per-day, per-product totals inside the
// window joined with each product's revenue sum and mean over that window.
// Only parameters referenced by the SQL are returned.
func BuildQuery(p QueryParams) (Query, error) {
	table := p.Table
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return Query{}, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, table)
	}
	for name, v := range map[string]string{"start date": p.StartDate, "end date": p.EndDate} {
		if _, err := time.Parse(dateLayout, v); err != nil {
			return Query{}, fmt.Errorf("%w: %s %q is not YYYY-MM-DD", domain.ErrInvalidInput, name, v)
		}
	}
	if p.StartDate > p.EndDate {
		return Query{}, fmt.Errorf("%w: start date %s is after end date %s", domain.ErrInvalidInput, p.StartDate, p.EndDate)
	}

	params := map[string]any{
		"start_date": p.StartDate,
		"end_date":   p.EndDate,
	}
	productFilter := ""
	if p.Product != "" {
		productFilter = "\n      AND product = :product"
		params["product"] = p.Product
	}

	var b strings.Builder
	fmt.Fprintf(&b, `WITH historical AS (
    SELECT
      DATE(sale_date) AS sale_date,
      product,
      SUM(quantity) AS total_quantity,
      SUM(revenue) AS total_revenue
    FROM "%s"
    WHERE DATE(sale_date) BETWEEN :start_date AND :end_date%s
    GROUP BY DATE(sale_date), product
  ),
  summary AS (
    SELECT
      product,
      SUM(total_revenue) AS revenue_sum,
      AVG(total_revenue) AS revenue_avg
    FROM historical
    GROUP BY product
  )
SELECT
  h.sale_date,
  h.product,
  h.total_quantity,
  h.total_revenue,
  s.revenue_sum AS forecast_sum,
  s.revenue_avg AS forecast_mean
FROM historical h
JOIN summary s USING (product)
ORDER BY h.sale_date, h.product`, table, productFilter)

	return Query{SQL: b.String(), Params: params}, nil
}
