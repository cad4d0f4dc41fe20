package category

import (
	"context"

	"github.com/altastore/catalog-service/internal/category/dto"
	"github.com/altastore/catalog-service/internal/model"
)

type UseCase interface {
	Create(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	GetImage(ctx context.Context, id string) ([]byte, string, error)
	List(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	Update(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id string) error
}
