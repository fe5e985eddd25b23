package enums

import "fmt"

// LineItemCategory classifies one invoice charge.
type LineItemCategory string

const (
	LineItemCategoryPart  LineItemCategory = "Part"
	LineItemCategoryLabor LineItemCategory = "Labor"
)

var validLineItemCategories = []LineItemCategory{
	LineItemCategoryPart,
	LineItemCategoryLabor,
}

// String returns the literal string for the category.
func (c LineItemCategory) String() string {
	return string(c)
}

// IsValid reports whether the category is known.
func (c LineItemCategory) IsValid() bool {
	for _, candidate := range validLineItemCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseLineItemCategory converts raw input into a LineItemCategory.
func ParseLineItemCategory(value string) (LineItemCategory, error) {
	for _, candidate := range validLineItemCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line item category %q", value)
}
