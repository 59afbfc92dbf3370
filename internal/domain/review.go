package domain

import (
	"math"
	"time"
)

// Review is a comment with a rating left on a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Comment   string    `json:"comment"`
	Rate      float64   `json:"rate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Touch advances UpdatedAt the same way Product.Touch does.
func (r *Review) Touch(now time.Time) {
	r.UpdatedAt = nextTimestamp(r.UpdatedAt, now)
}

// ValidRate reports whether rate is a finite number. Any numeric rating,
// fractional or outside a star scale, is stored as sent.
func ValidRate(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

// ReviewPatch lists the fields an update may change. Nil fields are kept.
type ReviewPatch struct {
	Comment *string
	Rate    *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p ReviewPatch) IsEmpty() bool {
	return p.Comment == nil && p.Rate == nil
}

// Apply copies the set fields onto review.
func (p ReviewPatch) Apply(review *Review) {
	if p.Comment != nil {
		review.Comment = *p.Comment
	}
	if p.Rate != nil {
		review.Rate = *p.Rate
	}
}
