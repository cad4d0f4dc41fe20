package category

import (
	"context"

	"github.com/altastore/catalog-service/internal/category/dto"
	"github.com/altastore/catalog-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, id string, name *string, image []byte) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	GetImage(ctx context.Context, id string) ([]byte, error)
}
