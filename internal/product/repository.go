package product

import (
	"context"
	"database/sql"

	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product/dto"
)

// Repository is the product side of the entity store. Mutations that span
// several entities run inside InTx: fn receives a tx-bound copy of the
// repository so every statement shares one transaction handle, and any error
// from fn rolls the whole transaction back.
type Repository interface {
	InTx(ctx context.Context, opts *sql.TxOptions, fn func(Repository) error) error

	Create(ctx context.Context, p *model.Product) error
	// Update applies the patch to the matching row. The statement always
	// touches updated_at, so the affected-row count doubles as the
	// existence check.
	Update(ctx context.Context, id string, patch *dto.ProductPatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	GetImage(ctx context.Context, id string) ([]byte, error)

	CountCategories(ctx context.Context, ids []string) (int, error)
	// AddCategories appends links; SetCategories replaces the full link set.
	AddCategories(ctx context.Context, productID string, categoryIDs []string) error
	SetCategories(ctx context.Context, productID string, categoryIDs []string) error
	FindCategoriesByProductIDs(ctx context.Context, productIDs []string) (map[string][]model.Category, error)

	FindVariants(ctx context.Context, productID string) ([]model.ProductVariant, error)
	CreateVariants(ctx context.Context, variants []model.ProductVariant) error
	UpdateVariant(ctx context.Context, v *model.ProductVariant) (int64, error)
	DeleteVariants(ctx context.Context, ids []string) error
	FindVariantsByProductIDs(ctx context.Context, productIDs []string) (map[string][]model.ProductVariant, error)
	AdjustVariantStock(ctx context.Context, variantID string, delta int) (int64, error)
}
