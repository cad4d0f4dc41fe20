package model

type Product struct {
	BaseModel
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
	Image       []byte  `db:"image" json:"-"` // never serialized; served via the image endpoint only
	IsActive    bool    `db:"is_active" json:"is_active"`

	Categories []Category       `db:"-" json:"categories"`
	Variants   []ProductVariant `db:"-" json:"variants"`
	Vouchers   []Voucher        `db:"-" json:"vouchers"`
}

type ProductVariant struct {
	BaseModel
	ProductID string  `db:"product_id" json:"product_id"`
	Name      string  `db:"name" json:"name"`
	Price     float64 `db:"price" json:"price"`
	Stock     int     `db:"stock" json:"stock"`

	// Reduced owner reference for listing responses. Never carries the image.
	Product *ProductRef `db:"-" json:"product,omitempty"`
}

// ProductRef is the trimmed back-reference a variant carries to its owner.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}
