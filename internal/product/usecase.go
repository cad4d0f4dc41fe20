package product

import (
	"context"

	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product/dto"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	GetImage(ctx context.Context, id string) ([]byte, string, error)
	List(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Search(ctx context.Context, query string, page, perPage int) ([]model.Product, int, error)
	Update(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	Delete(ctx context.Context, id string) error

	AdjustStock(ctx context.Context, items []dto.StockAdjustment) error
}

// ImageNormalizer converts raw upload bytes to the canonical stored form.
type ImageNormalizer interface {
	Normalize(raw []byte) ([]byte, error)
}
