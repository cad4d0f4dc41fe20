package usecase

import (
	"context"
	"time"

	"github.com/altastore/catalog-service/internal/category"
	"github.com/altastore/catalog-service/internal/category/dto"
	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product"
	"github.com/altastore/catalog-service/pkg/apperrors"
	"github.com/altastore/catalog-service/pkg/imaging"
	"github.com/altastore/catalog-service/pkg/logger"
	"github.com/google/uuid"
)

type categoryUseCase struct {
	repo       category.Repository
	normalizer product.ImageNormalizer
	logger     logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, normalizer product.ImageNormalizer, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:       repo,
		normalizer: normalizer,
		logger:     log,
	}
}

func (uc *categoryUseCase) Create(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("category name is required")
	}

	var image []byte
	if len(input.Image) > 0 {
		normalized, err := uc.normalizer.Normalize(input.Image)
		if err != nil {
			return nil, apperrors.InvalidInput("uploaded image could not be processed")
		}
		image = normalized
	}

	now := time.Now()
	c := &model.Category{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:      input.Name,
		Image:     image,
	}

	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, apperrors.Internal("failed to create category", err)
	}
	return c, nil
}

func (uc *categoryUseCase) Get(ctx context.Context, id string) (*model.Category, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to load category", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("category not found")
	}
	return c, nil
}

func (uc *categoryUseCase) GetImage(ctx context.Context, id string) ([]byte, string, error) {
	image, err := uc.repo.GetImage(ctx, id)
	if err != nil {
		return nil, "", apperrors.Internal("failed to read category image", err)
	}
	if len(image) == 0 {
		return nil, "", apperrors.NotFound("category image not found")
	}
	return image, imaging.ContentType, nil
}

func (uc *categoryUseCase) List(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	filters.Normalize()
	categories, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list categories", err)
	}
	return categories, count, nil
}

func (uc *categoryUseCase) Update(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	if input.IsEmpty() {
		return nil, apperrors.InvalidInput("update payload is empty")
	}

	var image []byte
	if len(input.Image) > 0 {
		normalized, err := uc.normalizer.Normalize(input.Image)
		if err != nil {
			return nil, apperrors.InvalidInput("uploaded image could not be processed")
		}
		image = normalized
	}

	rows, err := uc.repo.Update(ctx, input.ID, input.Name, image)
	if err != nil {
		return nil, apperrors.Internal("failed to update category", err)
	}
	if rows == 0 {
		return nil, apperrors.NotFound("category not found")
	}

	return uc.Get(ctx, input.ID)
}

func (uc *categoryUseCase) Delete(ctx context.Context, id string) error {
	rows, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to delete category", err)
	}
	if rows == 0 {
		return apperrors.NotFound("category not found")
	}
	return nil
}
