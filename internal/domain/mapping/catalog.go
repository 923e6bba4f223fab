package mapping

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/colmap/internal/domain"
)

// Catalog is a YAML document listing target fields.
type Catalog struct {
	Candidates []Candidate `yaml:"candidates"`
}

// ReadCatalog decodes a candidate catalog and checks that IDs are present and unique.
func ReadCatalog(r io.Reader) ([]Candidate, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %w", domain.ErrInvalidInput, err)
	}
	if err := Validate(c.Candidates); err != nil {
		return nil, err
	}
	return c.Candidates, nil
}

// Validate rejects candidates with empty or duplicate IDs.
func Validate(candidates []Candidate) error {
	seen := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		if c.ID == "" {
			return fmt.Errorf("%w: candidate %d: id is required", domain.ErrInvalidInput, i)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: candidate %d: duplicate id %q", domain.ErrInvalidInput, i, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// SalesCatalog is the built-in target schema for sales datasets.
func SalesCatalog() []Candidate {
	return []Candidate{
		{
			ID:          "sale_date",
			Description: "Transaction date when the sale occurred; ISO-8601 formatted",
			Synonyms:    []string{"date", "transaction_date", "order_date"},
			Required:    true,
		},
		{
			ID:          "product",
			Description: "Product name or unique identifier sold in the transaction",
			Synonyms:    []string{"sku", "item_name"},
			Required:    true,
		},
		{
			ID:          "quantity",
			Description: "Number of units sold for the transaction",
			Synonyms:    []string{"qty", "units", "count"},
		},
		{
			ID:          "revenue",
			Description: "Net revenue recorded for the transaction",
			Synonyms:    []string{"sales_amount", "sales", "amount"},
		},
		{
			ID:          "region",
			Description: "Geographical region or market",
			Synonyms:    []string{"territory", "market"},
		},
	}
}
