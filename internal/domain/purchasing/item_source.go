package purchasing

import (
	"strings"

	"github.com/erp/procurement/internal/domain/shared"
)

// SourceKind tags where a line item came from
type SourceKind string

const (
	SourceKindCatalog SourceKind = "CATALOG"
	SourceKindManual  SourceKind = "MANUAL"
)

// ItemSource is the origin of a line item: either a catalog variant or a
// manually typed entry. Only CatalogSource and ManualSource implement it.
type ItemSource interface {
	Kind() SourceKind
	isItemSource()
}

// CatalogSource references a variant in the commerce catalog
type CatalogSource struct {
	VariantID string
}

// Kind implements ItemSource
func (CatalogSource) Kind() SourceKind { return SourceKindCatalog }

func (CatalogSource) isItemSource() {}

// ManualSource marks an item entered by hand with no catalog reference
type ManualSource struct{}

// Kind implements ItemSource
func (ManualSource) Kind() SourceKind { return SourceKindManual }

func (ManualSource) isItemSource() {}

// NewCatalogSource builds a catalog source, rejecting a blank variant ID
func NewCatalogSource(variantID string) (CatalogSource, error) {
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return CatalogSource{}, shared.NewValidationError("Variant ID is required for catalog items")
	}
	return CatalogSource{VariantID: variantID}, nil
}

// SourceFromParts rebuilds an ItemSource from its stored kind and variant ID
func SourceFromParts(kind SourceKind, variantID *string) (ItemSource, error) {
	switch kind {
	case SourceKindManual:
		return ManualSource{}, nil
	case SourceKindCatalog:
		if variantID == nil {
			return nil, shared.NewValidationError("Catalog item is missing its variant ID")
		}
		return NewCatalogSource(*variantID)
	default:
		return nil, shared.NewValidationError("Unknown item source %q", kind)
	}
}

// VariantIDOf returns the catalog variant ID of a source, or nil for manual items
func VariantIDOf(source ItemSource) *string {
	switch s := source.(type) {
	case CatalogSource:
		id := s.VariantID
		return &id
	case ManualSource:
		return nil
	default:
		return nil
	}
}
