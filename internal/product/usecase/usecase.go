package usecase

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product"
	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/altastore/catalog-service/internal/voucher"
	"github.com/altastore/catalog-service/pkg/apperrors"
	"github.com/altastore/catalog-service/pkg/broker"
	"github.com/altastore/catalog-service/pkg/cache"
	"github.com/altastore/catalog-service/pkg/imaging"
	"github.com/altastore/catalog-service/pkg/logger"
	"github.com/altastore/catalog-service/pkg/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const productIndex = "products"

type productUseCase struct {
	repo       product.Repository
	vouchers   voucher.Repository
	normalizer product.ImageNormalizer
	cache      *cache.RedisClient
	es         *search.Client
	producer   *broker.KafkaProducer
	logger     logger.ZapLogger
}

func NewProductUseCase(
	repo product.Repository,
	vouchers voucher.Repository,
	normalizer product.ImageNormalizer,
	cacheClient *cache.RedisClient,
	es *search.Client,
	producer *broker.KafkaProducer,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:       repo,
		vouchers:   vouchers,
		normalizer: normalizer,
		cache:      cacheClient,
		es:         es,
		producer:   producer,
		logger:     log,
	}
}

// Create builds the product together with its category links and variants in
// one transaction. Any failure rolls the whole thing back.
func (uc *productUseCase) Create(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if err := validateVariantInputs(input.Variants); err != nil {
		return nil, err
	}

	image, err := uc.normalizeImage(input.Image)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	p := &model.Product{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		Name:        input.Name,
		Description: &input.Description,
		Image:       image,
		IsActive:    isActive,
	}

	var loaded *model.Product
	err = uc.repo.InTx(ctx, nil, func(repo product.Repository) error {
		if err := repo.Create(ctx, p); err != nil {
			return apperrors.Internal("failed to create product", err)
		}

		if len(input.CategoryIDs) > 0 {
			if err := uc.checkCategories(ctx, repo, input.CategoryIDs); err != nil {
				return err
			}
			if err := repo.AddCategories(ctx, p.ID, input.CategoryIDs); err != nil {
				return apperrors.Internal("failed to link categories", err)
			}
		}

		if len(input.Variants) > 0 {
			if err := repo.CreateVariants(ctx, buildVariants(p.ID, input.Variants, now)); err != nil {
				return apperrors.Internal("failed to create variants", err)
			}
		}

		var err error
		loaded, err = uc.loadProduct(ctx, repo, p.ID, false)
		return err
	})
	if err != nil {
		return nil, apperrors.Ensure(err, "create product failed")
	}

	uc.afterMutation(loaded, "product.created")
	return loaded, nil
}

// Update edits the product and reconciles its links and variants under a
// serializable transaction: the variant read-then-write sequence must not
// race with a concurrent edit of the same product.
func (uc *productUseCase) Update(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	if input.IsEmpty() {
		return nil, apperrors.InvalidInput("update payload is empty")
	}
	if err := validateVariantInputs(input.Variants); err != nil {
		return nil, err
	}

	image, err := uc.normalizeImage(input.Image)
	if err != nil {
		return nil, err
	}

	patch := input.Patch()
	patch.Image = image

	var loaded *model.Product
	err = uc.repo.InTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(repo product.Repository) error {
		rows, err := repo.Update(ctx, input.ID, patch)
		if err != nil {
			return apperrors.Internal("failed to update product", err)
		}
		if rows == 0 {
			return apperrors.NotFound("product not found")
		}

		// A nil or empty slice leaves existing links untouched; only a
		// non-empty slice replaces them.
		if len(input.CategoryIDs) > 0 {
			if err := uc.checkCategories(ctx, repo, input.CategoryIDs); err != nil {
				return err
			}
			if err := repo.SetCategories(ctx, input.ID, input.CategoryIDs); err != nil {
				return apperrors.Internal("failed to replace category links", err)
			}
		}

		if len(input.Variants) > 0 {
			if err := uc.applyVariantPlan(ctx, repo, input.ID, input.Variants); err != nil {
				return err
			}
		}

		loaded, err = uc.loadProduct(ctx, repo, input.ID, true)
		return err
	})
	if err != nil {
		return nil, apperrors.Ensure(err, "update product failed")
	}

	uc.afterMutation(loaded, "product.updated")
	return loaded, nil
}

// applyVariantPlan reads the product's current variants, plans the diff and
// executes it, all on the given tx-bound repository.
func (uc *productUseCase) applyVariantPlan(ctx context.Context, repo product.Repository, productID string, desired []dto.VariantInput) error {
	existing, err := repo.FindVariants(ctx, productID)
	if err != nil {
		return apperrors.Internal("failed to read variants", err)
	}

	plan, err := reconcileVariants(existing, desired)
	if err != nil {
		return err
	}

	if err := repo.DeleteVariants(ctx, plan.toDelete); err != nil {
		return apperrors.Internal("failed to delete variants", err)
	}

	now := time.Now()
	for i := range plan.toUpdate {
		v := plan.toUpdate[i]
		v.UpdatedAt = now
		rows, err := repo.UpdateVariant(ctx, &v)
		if err != nil {
			return apperrors.Internal("failed to update variant", err)
		}
		if rows == 0 {
			return apperrors.InvalidReferencef("variant %s does not belong to this product", v.ID)
		}
	}

	if len(plan.toCreate) > 0 {
		if err := repo.CreateVariants(ctx, buildVariants(productID, plan.toCreate, now)); err != nil {
			return apperrors.Internal("failed to create variants", err)
		}
	}
	return nil
}

func (uc *productUseCase) Delete(ctx context.Context, id string) error {
	rows, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return apperrors.Internal("failed to delete product", err)
	}
	if rows == 0 {
		return apperrors.NotFound("product not found")
	}

	uc.invalidateListCache()
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), productIndex, id); err != nil {
				uc.logger.Error("failed to delete product from index", zap.Error(err))
			}
		}()
	}
	uc.publishEvent("product.deleted", map[string]string{"id": id})
	return nil
}

func (uc *productUseCase) Get(ctx context.Context, id string) (*model.Product, error) {
	return uc.loadProduct(ctx, uc.repo, id, true)
}

// GetImage reads only the stored image bytes. The content type is fixed by
// the normalizer.
func (uc *productUseCase) GetImage(ctx context.Context, id string) ([]byte, string, error) {
	image, err := uc.repo.GetImage(ctx, id)
	if err != nil {
		return nil, "", apperrors.Internal("failed to read product image", err)
	}
	if len(image) == 0 {
		return nil, "", apperrors.NotFound("product image not found")
	}
	return image, imaging.ContentType, nil
}

func (uc *productUseCase) List(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	filters.Normalize()

	cacheKey := uc.listCacheKey(filters)
	if uc.cache != nil && cacheKey != "" {
		if val, err := uc.cache.Client.Get(ctx, cacheKey).Result(); err == nil {
			var cached struct {
				Products []model.Product
				Count    int
			}
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Count, nil
			}
		}
	}

	if filters.CategoryID != "" {
		n, err := uc.repo.CountCategories(ctx, []string{filters.CategoryID})
		if err != nil {
			return nil, 0, apperrors.Internal("failed to resolve category", err)
		}
		if n == 0 {
			return nil, 0, apperrors.NotFound("category not found")
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list products", err)
	}

	if err := uc.attachAssociations(ctx, products); err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		payload := struct {
			Products []model.Product
			Count    int
		}{Products: products, Count: count}
		if data, err := json.Marshal(payload); err == nil {
			uc.cache.Client.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return products, count, nil
}

// Search goes through Elasticsearch when available, falling back to the
// relational store on any failure.
func (uc *productUseCase) Search(ctx context.Context, query string, page, perPage int) ([]model.Product, int, error) {
	if uc.es != nil && query != "" {
		q := map[string]interface{}{
			"query": map[string]interface{}{
				"query_string": map[string]interface{}{
					"query":  fmt.Sprintf("*%s*", query),
					"fields": []string{"name^3", "description"},
				},
			},
			"from": (page - 1) * perPage,
			"size": perPage,
		}

		res, err := uc.es.Search(ctx, productIndex, q)
		if err == nil {
			products := []model.Product{}
			for _, hit := range res.Hits.Hits {
				var p model.Product
				if err := json.Unmarshal(hit.Source, &p); err == nil {
					products = append(products, p)
				}
			}
			return products, res.Hits.Total.Value, nil
		}
		uc.logger.Error("search fell back to database", zap.Error(err))
	}

	filters := &dto.ProductFilters{Name: query, Page: page, PerPage: perPage, Paginate: true}
	return uc.List(ctx, filters)
}

// AdjustStock applies a batch of signed stock deltas in one transaction; a
// delta that cannot be covered aborts the whole batch.
func (uc *productUseCase) AdjustStock(ctx context.Context, items []dto.StockAdjustment) error {
	if len(items) == 0 {
		return nil
	}

	err := uc.repo.InTx(ctx, nil, func(repo product.Repository) error {
		for _, item := range items {
			if item.Quantity == 0 {
				continue
			}
			rows, err := repo.AdjustVariantStock(ctx, item.VariantID, item.Quantity)
			if err != nil {
				return apperrors.Internal("failed to adjust stock", err)
			}
			if rows == 0 {
				return apperrors.InvalidReferencef("insufficient stock or unknown variant %s", item.VariantID)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Ensure(err, "stock adjustment failed")
	}

	uc.invalidateListCache()
	return nil
}

func (uc *productUseCase) normalizeImage(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	normalized, err := uc.normalizer.Normalize(raw)
	if err != nil {
		return nil, apperrors.InvalidInput("uploaded image could not be processed")
	}
	return normalized, nil
}

// checkCategories verifies every supplied category ID resolves. Detection
// rule is a count mismatch against the supplied set.
func (uc *productUseCase) checkCategories(ctx context.Context, repo product.Repository, ids []string) error {
	n, err := repo.CountCategories(ctx, ids)
	if err != nil {
		return apperrors.Internal("failed to resolve categories", err)
	}
	if n != len(ids) {
		return apperrors.InvalidReference("one or more categories do not exist")
	}
	return nil
}

// loadProduct re-reads the product with its associations. Image bytes are
// never part of this read.
func (uc *productUseCase) loadProduct(ctx context.Context, repo product.Repository, id string, withVouchers bool) (*model.Product, error) {
	p, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to load product", err)
	}
	if p == nil {
		return nil, apperrors.NotFound("product not found")
	}

	cats, err := repo.FindCategoriesByProductIDs(ctx, []string{id})
	if err != nil {
		return nil, apperrors.Internal("failed to load categories", err)
	}
	p.Categories = cats[id]
	if p.Categories == nil {
		p.Categories = []model.Category{}
	}

	variants, err := repo.FindVariants(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("failed to load variants", err)
	}
	ref := &model.ProductRef{ID: p.ID, Name: p.Name, IsActive: p.IsActive}
	for i := range variants {
		variants[i].Product = ref
	}
	p.Variants = variants

	p.Vouchers = []model.Voucher{}
	if withVouchers {
		vouchers, err := uc.vouchers.FindByProduct(ctx, id)
		if err != nil {
			return nil, apperrors.Internal("failed to load vouchers", err)
		}
		p.Vouchers = vouchers
	}

	return p, nil
}

// attachAssociations batch-loads categories, variants and vouchers for a
// page of products.
func (uc *productUseCase) attachAssociations(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	cats, err := uc.repo.FindCategoriesByProductIDs(ctx, ids)
	if err != nil {
		return apperrors.Internal("failed to load categories", err)
	}
	variants, err := uc.repo.FindVariantsByProductIDs(ctx, ids)
	if err != nil {
		return apperrors.Internal("failed to load variants", err)
	}
	vouchers, err := uc.vouchers.FindByProductIDs(ctx, ids)
	if err != nil {
		return apperrors.Internal("failed to load vouchers", err)
	}

	for i := range products {
		p := &products[i]
		p.Categories = cats[p.ID]
		if p.Categories == nil {
			p.Categories = []model.Category{}
		}

		vs := variants[p.ID]
		ref := &model.ProductRef{ID: p.ID, Name: p.Name, IsActive: p.IsActive}
		for j := range vs {
			vs[j].Product = ref
		}
		if vs == nil {
			vs = []model.ProductVariant{}
		}
		p.Variants = vs

		p.Vouchers = vouchers[p.ID]
		if p.Vouchers == nil {
			p.Vouchers = []model.Voucher{}
		}
	}
	return nil
}

func buildVariants(productID string, inputs []dto.VariantInput, now time.Time) []model.ProductVariant {
	variants := make([]model.ProductVariant, len(inputs))
	for i, in := range inputs {
		variants[i] = model.ProductVariant{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ProductID: productID,
			Name:      in.Name,
			Price:     in.Price,
			Stock:     in.Stock,
		}
	}
	return variants
}

func validateVariantInputs(inputs []dto.VariantInput) error {
	for _, in := range inputs {
		if in.Name == "" {
			return apperrors.InvalidInput("variant name is required")
		}
		if in.Price < 0 {
			return apperrors.InvalidInputf("variant %q has a negative price", in.Name)
		}
		if in.Stock < 0 {
			return apperrors.InvalidInputf("variant %q has negative stock", in.Name)
		}
	}
	return nil
}

func (uc *productUseCase) listCacheKey(filters *dto.ProductFilters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("products:list:%x", md5.Sum(data))
}

func (uc *productUseCase) invalidateListCache() {
	if uc.cache == nil {
		return
	}
	go func() {
		ctx := context.Background()
		keys, err := uc.cache.Client.Keys(ctx, "products:list:*").Result()
		if err == nil && len(keys) > 0 {
			uc.cache.Client.Del(ctx, keys...)
		}
	}()
}

// afterMutation runs the post-commit side effects: cache invalidation,
// search index sync and event publishing. All best-effort.
func (uc *productUseCase) afterMutation(p *model.Product, eventType string) {
	uc.invalidateListCache()

	if uc.es != nil {
		doc := *p
		go uc.syncToElastic(context.Background(), &doc)
	}

	uc.publishEvent(eventType, p)
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	mapping := `{
		"mappings": {
			"properties": {
				"name": { "type": "text" },
				"description": { "type": "text" },
				"is_active": { "type": "boolean" },
				"created_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, productIndex, mapping)

	if err := uc.es.Index(ctx, productIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

type productEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func (uc *productUseCase) publishEvent(eventType string, payload interface{}) {
	if uc.producer == nil {
		return
	}
	go func() {
		event := productEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Payload:   payload,
			Timestamp: time.Now(),
		}
		data, err := json.Marshal(event)
		if err != nil {
			return
		}
		if err := uc.producer.Publish(context.Background(), []byte(eventType), data); err != nil {
			uc.logger.Error("failed to publish event", zap.String("event_type", eventType), zap.Error(err))
		}
	}()
}
