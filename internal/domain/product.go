package domain

import (
	"strings"
	"time"
)

// Product represents a product in the catalog.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// InCategory reports whether the product belongs to category, ignoring case.
func (p *Product) InCategory(category string) bool {
	return strings.EqualFold(p.Category, category)
}

// Touch sets UpdatedAt to now, or just past the previous value when the
// clock has not advanced, so that every update is observable.
func (p *Product) Touch(now time.Time) {
	p.UpdatedAt = nextTimestamp(p.UpdatedAt, now)
}

// ProductPatch lists the fields an update may change. Nil fields are kept.
type ProductPatch struct {
	Name        *string
	Brand       *string
	Category    *string
	Description *string
	Price       *float64
	ImageURL    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Brand == nil && p.Category == nil &&
		p.Description == nil && p.Price == nil && p.ImageURL == nil
}

// Apply copies the set fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Brand != nil {
		product.Brand = *p.Brand
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
}

func nextTimestamp(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}
