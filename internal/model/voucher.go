package model

import "time"

// Voucher is read-only in this service: vouchers are created elsewhere and
// only attached to product payloads here.
type Voucher struct {
	BaseModel
	ProductID       string     `db:"product_id" json:"product_id"`
	Code            string     `db:"code" json:"code"`
	Name            string     `db:"name" json:"name"`
	DiscountPercent float64    `db:"discount_percent" json:"discount_percent"`
	MaxDiscount     *float64   `db:"max_discount" json:"max_discount"`
	StartsAt        *time.Time `db:"starts_at" json:"starts_at"`
	ExpiresAt       *time.Time `db:"expires_at" json:"expires_at"`
	IsActive        bool       `db:"is_active" json:"is_active"`
}
