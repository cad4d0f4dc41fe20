package dto

// VariantInput is one desired variant in a create or update request.
// An empty ID means "create"; a non-empty ID claims an existing variant.
type VariantInput struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type CreateProductInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       []byte         `json:"-"` // raw upload, normalized before storage
	IsActive    *bool          `json:"is_active"`
	CategoryIDs []string       `json:"category_ids"`
	Variants    []VariantInput `json:"variants"`
}

// UpdateProductInput carries a partial edit. Nil field pointers mean "leave
// unchanged". A nil or empty CategoryIDs / Variants slice also means "no
// change": links are only touched when the slice is non-empty.
type UpdateProductInput struct {
	ID          string         `json:"-"`
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	Image       []byte         `json:"-"`
	IsActive    *bool          `json:"is_active"`
	CategoryIDs []string       `json:"category_ids"`
	Variants    []VariantInput `json:"variants"`
}

// IsEmpty reports whether the edit carries nothing at all. Empty edits are
// rejected before any store access.
func (in *UpdateProductInput) IsEmpty() bool {
	return in.Name == nil &&
		in.Description == nil &&
		in.IsActive == nil &&
		len(in.Image) == 0 &&
		len(in.CategoryIDs) == 0 &&
		len(in.Variants) == 0
}

// Patch extracts the product-row part of the edit. Category and variant
// changes are applied through dedicated repository calls.
func (in *UpdateProductInput) Patch() *ProductPatch {
	return &ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		IsActive:    in.IsActive,
	}
}

// ProductPatch updates only the fields whose pointers are set.
type ProductPatch struct {
	Name        *string
	Description *string
	Image       []byte
	IsActive    *bool
}

// StockAdjustment is a signed stock delta for one variant, consumed from
// order events.
type StockAdjustment struct {
	VariantID string
	Quantity  int
}
