// Package models provides the data structures used throughout the pipeline.
package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of classifications a record can receive.
// The zero value means "not classified yet".
type Category string

const (
	CategoryNone           Category = ""
	CategoryTransfer       Category = "TRANSFER"
	CategoryIncome         Category = "INCOME"
	CategoryGroceries      Category = "GROCERIES"
	CategoryDining         Category = "DINING"
	CategoryHousing        Category = "HOUSING"
	CategoryUtilities      Category = "UTILITIES"
	CategoryTransportation Category = "TRANSPORTATION"
	CategoryShopping       Category = "SHOPPING"
	CategoryHealth         Category = "HEALTH"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryFees           Category = "FEES"
	CategoryCash           Category = "CASH"
	CategoryOther          Category = "OTHER"
)

var allCategories = []Category{
	CategoryTransfer,
	CategoryIncome,
	CategoryGroceries,
	CategoryDining,
	CategoryHousing,
	CategoryUtilities,
	CategoryTransportation,
	CategoryShopping,
	CategoryHealth,
	CategoryEntertainment,
	CategoryFees,
	CategoryCash,
	CategoryOther,
}

// AllCategories returns every assignable category in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory converts a name to a Category, ignoring case and surrounding space.
func ParseCategory(name string) (Category, error) {
	normalized := Category(strings.ToUpper(strings.TrimSpace(name)))
	for _, c := range allCategories {
		if c == normalized {
			return c, nil
		}
	}
	return CategoryNone, fmt.Errorf("unknown category %q", name)
}

// IsValid reports whether c is an assignable category.
func (c Category) IsValid() bool {
	_, err := ParseCategory(string(c))
	return err == nil && c != CategoryNone
}

// IsTransfer reports whether c is the inter-account transfer category.
func (c Category) IsTransfer() bool {
	return c == CategoryTransfer
}

func (c Category) String() string {
	return string(c)
}
