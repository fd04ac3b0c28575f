package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/seumarket/campus-market/internal/fault"
)

// Listing is a seller's for-sale item. Its stock counter is mutated by the
// order engine under row locks; the write paths here are the seller's direct
// edits and take the same lock before touching stock.
type Listing struct {
	ID          int64
	SellerID    int64
	Title       string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Views       int64
	ImageURL    *string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var categories = map[string]struct{}{
	"books":       {},
	"electronics": {},
	"daily":       {},
	"sports":      {},
	"clothes":     {},
	"other":       {},
}

func ValidCategory(c string) bool {
	_, ok := categories[c]
	return ok
}

type ListingInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"image_url"`
}

func (in ListingInput) Validate() error {
	if in.Title == "" {
		return fault.Validation("title is required")
	}
	if len(in.Title) > 100 {
		return fault.Validation("title must be at most 100 characters")
	}
	if in.Category != "" && !ValidCategory(in.Category) {
		return fault.Validation("unknown category %q", in.Category)
	}
	if !in.Price.IsPositive() {
		return fault.Validation("price must be positive")
	}
	if in.Stock < 0 {
		return fault.Validation("stock cannot be negative")
	}
	return nil
}

// ListingPatch carries the seller-editable fields; nil means unchanged.
type ListingPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
	Active      *bool            `json:"is_active"`
}

func (p ListingPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return fault.Validation("title cannot be empty")
	}
	if p.Category != nil && !ValidCategory(*p.Category) {
		return fault.Validation("unknown category %q", *p.Category)
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return fault.Validation("price must be positive")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fault.Validation("stock cannot be negative")
	}
	return nil
}
