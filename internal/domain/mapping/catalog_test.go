package mapping

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/colmap/internal/domain"
)

func TestReadCatalog(t *testing.T) {
	doc := `
candidates:
  - id: revenue
    description: Net revenue
    synonyms: [sales, amount]
  - id: quantity
    description: Units sold
    required: true
`
	got, err := ReadCatalog(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != "revenue" || len(got[0].Synonyms) != 2 {
		t.Errorf("unexpected first candidate %+v", got[0])
	}
	if !got[1].Required {
		t.Error("expected quantity to be required")
	}
}

func TestReadCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing id":   "candidates:\n  - description: x\n",
		"duplicate id": "candidates:\n  - id: a\n  - id: a\n",
		"bad yaml":     "candidates: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCatalog(strings.NewReader(doc))
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSalesCatalog_Valid(t *testing.T) {
	c := SalesCatalog()
	if err := Validate(c); err != nil {
		t.Fatalf("built-in catalog invalid: %v", err)
	}
	if len(c) != 5 {
		t.Errorf("expected 5 candidates, got %d", len(c))
	}
}
