package dataset

import (
	"strings"

	"github.com/listlens/listlens/internal/categories"
)

// Record is one hand-labeled grocery item.
type Record struct {
	Name     string `json:"name" parquet:"name"`
	Category string `json:"category" parquet:"category"`
	// Source says where the label came from, e.g. a receipt export.
	Source string `json:"source,omitempty" parquet:"source,optional"`
}

// Expected returns the labeled category.
func (r Record) Expected() categories.Category {
	return categories.Parse(r.Category)
}

// Valid reports whether the record can be scored.
func (r Record) Valid() bool {
	return strings.TrimSpace(r.Name) != "" && strings.TrimSpace(r.Category) != ""
}
