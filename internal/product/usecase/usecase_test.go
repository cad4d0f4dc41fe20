package usecase

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product"
	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/altastore/catalog-service/pkg/apperrors"
	"github.com/altastore/catalog-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore is an in-memory product.Repository. InTx snapshots the state and
// restores it when fn fails, mimicking a rollback.
type stubStore struct {
	products   map[string]model.Product
	categories map[string]bool
	links      map[string][]string
	variants   map[string][]model.ProductVariant

	txOpts            []*sql.TxOptions
	failVariantCreate bool
}

func newStubStore() *stubStore {
	return &stubStore{
		products:   map[string]model.Product{},
		categories: map[string]bool{},
		links:      map[string][]string{},
		variants:   map[string][]model.ProductVariant{},
	}
}

func (s *stubStore) snapshot() *stubStore {
	cp := newStubStore()
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.categories {
		cp.categories[k] = v
	}
	for k, v := range s.links {
		cp.links[k] = append([]string{}, v...)
	}
	for k, v := range s.variants {
		cp.variants[k] = append([]model.ProductVariant{}, v...)
	}
	return cp
}

func (s *stubStore) restore(cp *stubStore) {
	s.products = cp.products
	s.categories = cp.categories
	s.links = cp.links
	s.variants = cp.variants
}

func (s *stubStore) InTx(_ context.Context, opts *sql.TxOptions, fn func(product.Repository) error) error {
	s.txOpts = append(s.txOpts, opts)
	cp := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(cp)
		return err
	}
	return nil
}

func (s *stubStore) Create(_ context.Context, p *model.Product) error {
	s.products[p.ID] = *p
	return nil
}

func (s *stubStore) Update(_ context.Context, id string, patch *dto.ProductPatch) (int64, error) {
	p, ok := s.products[id]
	if !ok {
		return 0, nil
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if len(patch.Image) > 0 {
		p.Image = patch.Image
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	s.products[id] = p
	return 1, nil
}

func (s *stubStore) Delete(_ context.Context, id string) (int64, error) {
	if _, ok := s.products[id]; !ok {
		return 0, nil
	}
	delete(s.products, id)
	delete(s.links, id)
	delete(s.variants, id)
	return 1, nil
}

func (s *stubStore) FindByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	p.Image = nil
	return &p, nil
}

func (s *stubStore) FindAll(_ context.Context, _ *dto.ProductFilters) ([]model.Product, int, error) {
	out := []model.Product{}
	for _, p := range s.products {
		p.Image = nil
		out = append(out, p)
	}
	return out, len(out), nil
}

func (s *stubStore) GetImage(_ context.Context, id string) ([]byte, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	return p.Image, nil
}

func (s *stubStore) CountCategories(_ context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		if s.categories[id] {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) AddCategories(_ context.Context, productID string, categoryIDs []string) error {
	existing := map[string]bool{}
	for _, id := range s.links[productID] {
		existing[id] = true
	}
	for _, id := range categoryIDs {
		if !existing[id] {
			s.links[productID] = append(s.links[productID], id)
		}
	}
	return nil
}

func (s *stubStore) SetCategories(_ context.Context, productID string, categoryIDs []string) error {
	s.links[productID] = nil
	return s.AddCategories(context.Background(), productID, categoryIDs)
}

func (s *stubStore) FindCategoriesByProductIDs(_ context.Context, productIDs []string) (map[string][]model.Category, error) {
	out := map[string][]model.Category{}
	for _, pid := range productIDs {
		for _, cid := range s.links[pid] {
			out[pid] = append(out[pid], model.Category{BaseModel: model.BaseModel{ID: cid}, Name: "cat-" + cid})
		}
	}
	return out, nil
}

func (s *stubStore) FindVariants(_ context.Context, productID string) ([]model.ProductVariant, error) {
	return append([]model.ProductVariant{}, s.variants[productID]...), nil
}

func (s *stubStore) CreateVariants(_ context.Context, variants []model.ProductVariant) error {
	if s.failVariantCreate {
		return errors.New("insert failed")
	}
	for _, v := range variants {
		s.variants[v.ProductID] = append(s.variants[v.ProductID], v)
	}
	return nil
}

func (s *stubStore) UpdateVariant(_ context.Context, v *model.ProductVariant) (int64, error) {
	vs := s.variants[v.ProductID]
	for i := range vs {
		if vs[i].ID == v.ID {
			vs[i] = *v
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubStore) DeleteVariants(_ context.Context, ids []string) error {
	drop := map[string]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	for pid, vs := range s.variants {
		kept := vs[:0]
		for _, v := range vs {
			if !drop[v.ID] {
				kept = append(kept, v)
			}
		}
		s.variants[pid] = append([]model.ProductVariant{}, kept...)
	}
	return nil
}

func (s *stubStore) FindVariantsByProductIDs(_ context.Context, productIDs []string) (map[string][]model.ProductVariant, error) {
	out := map[string][]model.ProductVariant{}
	for _, pid := range productIDs {
		if vs, ok := s.variants[pid]; ok {
			out[pid] = append([]model.ProductVariant{}, vs...)
		}
	}
	return out, nil
}

func (s *stubStore) AdjustVariantStock(_ context.Context, variantID string, delta int) (int64, error) {
	for pid, vs := range s.variants {
		for i := range vs {
			if vs[i].ID == variantID {
				if vs[i].Stock+delta < 0 {
					return 0, nil
				}
				vs[i].Stock += delta
				s.variants[pid] = vs
				return 1, nil
			}
		}
	}
	return 0, nil
}

type stubVouchers struct {
	byProduct map[string][]model.Voucher
}

func (s *stubVouchers) FindByProduct(_ context.Context, productID string) ([]model.Voucher, error) {
	return s.byProduct[productID], nil
}

func (s *stubVouchers) FindByProductIDs(_ context.Context, productIDs []string) (map[string][]model.Voucher, error) {
	out := map[string][]model.Voucher{}
	for _, pid := range productIDs {
		if vs, ok := s.byProduct[pid]; ok {
			out[pid] = vs
		}
	}
	return out, nil
}

type stubNormalizer struct {
	fail bool
}

func (n *stubNormalizer) Normalize(raw []byte) ([]byte, error) {
	if n.fail {
		return nil, errors.New("bad image")
	}
	return append([]byte("normalized:"), raw...), nil
}

func newTestUseCase(store *stubStore) product.UseCase {
	return NewProductUseCase(store, &stubVouchers{byProduct: map[string][]model.Voucher{}}, &stubNormalizer{}, nil, nil, nil, logger.NewNop())
}

func seedProduct(store *stubStore, id, name string) {
	store.products[id] = model.Product{
		BaseModel: model.BaseModel{ID: id},
		Name:      name,
		IsActive:  true,
	}
}

func strPtr(s string) *string { return &s }

func TestCreate_WithCategoriesAndVariants(t *testing.T) {
	store := newStubStore()
	store.categories["c1"] = true
	store.categories["c2"] = true
	uc := newTestUseCase(store)

	p, err := uc.Create(context.Background(), &dto.CreateProductInput{
		Name:        "Shirt",
		Description: "plain shirt",
		Image:       []byte("raw-bytes"),
		CategoryIDs: []string{"c1", "c2"},
		Variants: []dto.VariantInput{
			{Name: "S", Price: 10, Stock: 3},
			{Name: "M", Price: 12, Stock: 4},
		},
	})
	require.NoError(t, err)

	stored := store.products[p.ID]
	assert.Equal(t, []byte("normalized:raw-bytes"), stored.Image, "stored image must be the normalized form")
	assert.True(t, stored.IsActive, "active defaults to true")

	assert.ElementsMatch(t, []string{"c1", "c2"}, store.links[p.ID])
	require.Len(t, p.Variants, 2)
	for _, v := range p.Variants {
		assert.NotEmpty(t, v.ID, "created variants get fresh identities")
		assert.Equal(t, p.ID, v.ProductID)
	}
	assert.Len(t, p.Categories, 2)
	assert.Nil(t, p.Image, "loaded product never carries image bytes")
}

func TestCreate_UnknownCategoryRollsBack(t *testing.T) {
	store := newStubStore()
	store.categories["c1"] = true
	uc := newTestUseCase(store)

	_, err := uc.Create(context.Background(), &dto.CreateProductInput{
		Name:        "Shirt",
		CategoryIDs: []string{"c1", "ghost"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))
	assert.Empty(t, store.products, "nothing may persist when linking fails")
	assert.Empty(t, store.links)
}

func TestCreate_BadImageFailsBeforeAnyWrite(t *testing.T) {
	store := newStubStore()
	uc := NewProductUseCase(store, &stubVouchers{}, &stubNormalizer{fail: true}, nil, nil, nil, logger.NewNop())

	_, err := uc.Create(context.Background(), &dto.CreateProductInput{
		Name:  "Shirt",
		Image: []byte("not-an-image"),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	assert.Empty(t, store.products)
	assert.Empty(t, store.txOpts, "no transaction may start on a bad upload")
}

func TestUpdate_EmptyPayloadRejected(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{ID: "p1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	assert.Empty(t, store.txOpts, "empty edits must not touch the store")
}

func TestUpdate_NotFound(t *testing.T) {
	store := newStubStore()
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{ID: "ghost", Name: strPtr("New")})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpdate_UsesSerializableIsolation(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{ID: "p1", Name: strPtr("Tee")})
	require.NoError(t, err)
	require.Len(t, store.txOpts, 1)
	require.NotNil(t, store.txOpts[0])
	assert.Equal(t, sql.LevelSerializable, store.txOpts[0].Isolation)
}

func TestUpdate_ReconcilesVariants(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.variants["p1"] = []model.ProductVariant{
		variant("a", "S", 10, 1),
		variant("b", "M", 20, 2),
		variant("c", "L", 30, 3),
	}
	uc := newTestUseCase(store)

	p, err := uc.Update(context.Background(), &dto.UpdateProductInput{
		ID: "p1",
		Variants: []dto.VariantInput{
			{ID: "b", Name: "M v2", Price: 22, Stock: 9},
			{Name: "XL", Price: 40, Stock: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, store.variants["p1"], 2)
	byName := map[string]model.ProductVariant{}
	for _, v := range store.variants["p1"] {
		byName[v.Name] = v
	}
	require.Contains(t, byName, "M v2")
	assert.Equal(t, "b", byName["M v2"].ID, "claimed variant keeps its identity")
	assert.Equal(t, 22.0, byName["M v2"].Price)
	require.Contains(t, byName, "XL")
	assert.NotEmpty(t, byName["XL"].ID)

	require.Len(t, p.Variants, 2)
	for _, v := range p.Variants {
		require.NotNil(t, v.Product)
		assert.Equal(t, "p1", v.Product.ID)
	}
}

func TestUpdate_UnknownVariantRollsBackEverything(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.variants["p1"] = []model.ProductVariant{
		variant("a", "S", 10, 1),
		variant("b", "M", 20, 2),
	}
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{
		ID:   "p1",
		Name: strPtr("Renamed"),
		Variants: []dto.VariantInput{
			{ID: "a", Name: "S v2", Price: 11, Stock: 1},
			{ID: "ghost", Name: "Ghost", Price: 1, Stock: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))

	// The whole edit rolls back together, field update included.
	assert.Equal(t, "Shirt", store.products["p1"].Name)
	require.Len(t, store.variants["p1"], 2)
	byID := map[string]model.ProductVariant{}
	for _, v := range store.variants["p1"] {
		byID[v.ID] = v
	}
	assert.Equal(t, "S", byID["a"].Name, "no partial variant update may persist")
}

func TestUpdate_MidTxVariantCreateFailureRollsBack(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.variants["p1"] = []model.ProductVariant{variant("a", "S", 10, 1)}
	store.failVariantCreate = true
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{
		ID:       "p1",
		Name:     strPtr("Renamed"),
		Variants: []dto.VariantInput{{Name: "Fresh", Price: 5, Stock: 5}},
	})
	require.Error(t, err)
	assert.Equal(t, "Shirt", store.products["p1"].Name)
	require.Len(t, store.variants["p1"], 1)
	assert.Equal(t, "a", store.variants["p1"][0].ID, "deleted variants come back on rollback")
}

func TestUpdate_AbsentVariantListLeavesVariantsAlone(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.variants["p1"] = []model.ProductVariant{variant("a", "S", 10, 1)}
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{ID: "p1", Name: strPtr("Tee")})
	require.NoError(t, err)
	require.Len(t, store.variants["p1"], 1)
	assert.Equal(t, "S", store.variants["p1"][0].Name)
}

func TestUpdate_CategoryReplaceIsIdempotent(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.categories["c1"] = true
	store.categories["c2"] = true
	store.links["p1"] = []string{"c1"}
	uc := newTestUseCase(store)

	for i := 0; i < 2; i++ {
		_, err := uc.Update(context.Background(), &dto.UpdateProductInput{
			ID:          "p1",
			CategoryIDs: []string{"c1", "c2"},
		})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"c1", "c2"}, store.links["p1"])
	}
}

func TestUpdate_UnknownCategoryKeepsOldLinks(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.categories["c1"] = true
	store.links["p1"] = []string{"c1"}
	uc := newTestUseCase(store)

	_, err := uc.Update(context.Background(), &dto.UpdateProductInput{
		ID:          "p1",
		CategoryIDs: []string{"c1", "ghost"},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))
	assert.Equal(t, []string{"c1"}, store.links["p1"])
}

func TestDelete(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	uc := newTestUseCase(store)

	require.NoError(t, uc.Delete(context.Background(), "p1"))
	assert.Empty(t, store.products)

	err := uc.Delete(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGetImage(t *testing.T) {
	store := newStubStore()
	store.products["p1"] = model.Product{
		BaseModel: model.BaseModel{ID: "p1"},
		Name:      "Shirt",
		Image:     []byte("stored-image"),
	}
	uc := newTestUseCase(store)

	data, contentType, err := uc.GetImage(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []byte("stored-image"), data)
	assert.Equal(t, "image/jpeg", contentType)

	_, _, err = uc.GetImage(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestGetImage_NoStoredImage(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	uc := newTestUseCase(store)

	_, _, err := uc.GetImage(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestList_UnknownCategoryScope(t *testing.T) {
	store := newStubStore()
	uc := newTestUseCase(store)

	_, _, err := uc.List(context.Background(), &dto.ProductFilters{CategoryID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestAdjustStock_InsufficientStockRollsBackBatch(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.variants["p1"] = []model.ProductVariant{
		variant("a", "S", 10, 5),
		variant("b", "M", 20, 1),
	}
	uc := newTestUseCase(store)

	err := uc.AdjustStock(context.Background(), []dto.StockAdjustment{
		{VariantID: "a", Quantity: -2},
		{VariantID: "b", Quantity: -3},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidReference, apperrors.KindOf(err))

	byID := map[string]model.ProductVariant{}
	for _, v := range store.variants["p1"] {
		byID[v.ID] = v
	}
	assert.Equal(t, 5, byID["a"].Stock, "first deduction must roll back with the batch")
	assert.Equal(t, 1, byID["b"].Stock)
}

func TestAdjustStock_AppliesBatch(t *testing.T) {
	store := newStubStore()
	seedProduct(store, "p1", "Shirt")
	store.variants["p1"] = []model.ProductVariant{variant("a", "S", 10, 5)}
	uc := newTestUseCase(store)

	require.NoError(t, uc.AdjustStock(context.Background(), []dto.StockAdjustment{{VariantID: "a", Quantity: -2}}))
	assert.Equal(t, 3, store.variants["p1"][0].Stock)
}
