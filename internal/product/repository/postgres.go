package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product"
	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	db *sqlx.DB
	q  sqlx.ExtContext // active runner: the pool, or the transaction inside InTx
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{db: db, q: db}
}

// InTx runs fn against a tx-bound copy of the repository. The transaction
// commits only when fn returns nil; any error rolls it back and is returned
// unchanged.
func (r *PGRepository) InTx(ctx context.Context, opts *sql.TxOptions, fn func(product.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, opts)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(&PGRepository{db: r.db, q: tx}); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (id, name, description, image, is_active, created_at, updated_at)
        VALUES (:id, :name, :description, :image, :is_active, :created_at, :updated_at)
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, p)
	return errors.Wrap(err, "insert product")
}

func (r *PGRepository) Update(ctx context.Context, id string, patch *dto.ProductPatch) (int64, error) {
	sets := []string{"updated_at = :updated_at"}
	args := map[string]interface{}{
		"id":         id,
		"updated_at": time.Now(),
	}

	if patch.Name != nil {
		sets = append(sets, "name = :name")
		args["name"] = *patch.Name
	}
	if patch.Description != nil {
		sets = append(sets, "description = :description")
		args["description"] = *patch.Description
	}
	if len(patch.Image) > 0 {
		sets = append(sets, "image = :image")
		args["image"] = patch.Image
	}
	if patch.IsActive != nil {
		sets = append(sets, "is_active = :is_active")
		args["is_active"] = *patch.IsActive
	}

	query := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = :id"
	res, err := sqlx.NamedExecContext(ctx, r.q, query, args)
	if err != nil {
		return 0, errors.Wrap(err, "update product")
	}
	return res.RowsAffected()
}

func (r *PGRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return 0, errors.Wrap(err, "delete product")
	}
	return res.RowsAffected()
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := "SELECT " + productColumns + " FROM products p WHERE p.id = $1 LIMIT 1"
	err := sqlx.GetContext(ctx, r.q, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &p, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	listQuery, countQuery, args := buildListQuery(f)

	var count int
	rows, err := sqlx.NamedQueryContext(ctx, r.q, countQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, errors.Wrap(err, "scan product count")
		}
	}

	listRows, err := sqlx.NamedQueryContext(ctx, r.q, listQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list products")
	}
	defer listRows.Close()

	products := []model.Product{}
	for listRows.Next() {
		var p model.Product
		if err := listRows.StructScan(&p); err != nil {
			return nil, 0, errors.Wrap(err, "scan product")
		}
		products = append(products, p)
	}
	return products, count, listRows.Err()
}

func (r *PGRepository) GetImage(ctx context.Context, id string) ([]byte, error) {
	var image []byte
	err := sqlx.GetContext(ctx, r.q, &image, "SELECT image FROM products WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get product image")
	}
	return image, nil
}

func (r *PGRepository) CountCategories(ctx context.Context, ids []string) (int, error) {
	query, args, err := sqlx.In("SELECT count(*) FROM categories WHERE id IN (?)", ids)
	if err != nil {
		return 0, errors.Wrap(err, "build category count query")
	}

	var count int
	err = sqlx.GetContext(ctx, r.q, &count, r.q.Rebind(query), args...)
	return count, errors.Wrap(err, "count categories")
}

func (r *PGRepository) AddCategories(ctx context.Context, productID string, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	values := make([]string, 0, len(categoryIDs))
	args := make([]interface{}, 0, len(categoryIDs)*2)
	for _, catID := range categoryIDs {
		values = append(values, "(?, ?)")
		args = append(args, productID, catID)
	}

	query := "INSERT INTO product_categories (product_id, category_id) VALUES " +
		strings.Join(values, ", ") + " ON CONFLICT DO NOTHING"
	_, err := r.q.ExecContext(ctx, r.q.Rebind(query), args...)
	return errors.Wrap(err, "link categories")
}

// SetCategories replaces the product's full category link set.
func (r *PGRepository) SetCategories(ctx context.Context, productID string, categoryIDs []string) error {
	if _, err := r.q.ExecContext(ctx, "DELETE FROM product_categories WHERE product_id = $1", productID); err != nil {
		return errors.Wrap(err, "unlink categories")
	}
	return r.AddCategories(ctx, productID, categoryIDs)
}

func (r *PGRepository) FindCategoriesByProductIDs(ctx context.Context, productIDs []string) (map[string][]model.Category, error) {
	result := map[string][]model.Category{}
	if len(productIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`
        SELECT c.id, c.name, c.created_at, c.updated_at, pc.product_id AS owner_id
        FROM categories c
        JOIN product_categories pc ON pc.category_id = c.id
        WHERE pc.product_id IN (?)
        ORDER BY c.name ASC
    `, productIDs)
	if err != nil {
		return nil, errors.Wrap(err, "build category lookup query")
	}

	var rows []struct {
		model.Category
		OwnerID string `db:"owner_id"`
	}
	if err := sqlx.SelectContext(ctx, r.q, &rows, r.q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find categories by products")
	}

	for _, row := range rows {
		result[row.OwnerID] = append(result[row.OwnerID], row.Category)
	}
	return result, nil
}

const variantColumns = "id, product_id, name, price, stock, created_at, updated_at"

func (r *PGRepository) FindVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	variants := []model.ProductVariant{}
	query := "SELECT " + variantColumns + " FROM product_variants WHERE product_id = $1 ORDER BY created_at ASC"
	err := sqlx.SelectContext(ctx, r.q, &variants, query, productID)
	return variants, errors.Wrap(err, "find variants")
}

func (r *PGRepository) CreateVariants(ctx context.Context, variants []model.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	query := `
        INSERT INTO product_variants (id, product_id, name, price, stock, created_at, updated_at)
        VALUES (:id, :product_id, :name, :price, :stock, :created_at, :updated_at)
    `
	_, err := sqlx.NamedExecContext(ctx, r.q, query, variants)
	return errors.Wrap(err, "insert variants")
}

func (r *PGRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) (int64, error) {
	query := `
        UPDATE product_variants
        SET name = :name, price = :price, stock = :stock, updated_at = :updated_at
        WHERE id = :id AND product_id = :product_id
    `
	res, err := sqlx.NamedExecContext(ctx, r.q, query, v)
	if err != nil {
		return 0, errors.Wrap(err, "update variant")
	}
	return res.RowsAffected()
}

func (r *PGRepository) DeleteVariants(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("DELETE FROM product_variants WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "build variant delete query")
	}
	_, err = r.q.ExecContext(ctx, r.q.Rebind(query), args...)
	return errors.Wrap(err, "delete variants")
}

func (r *PGRepository) FindVariantsByProductIDs(ctx context.Context, productIDs []string) (map[string][]model.ProductVariant, error) {
	result := map[string][]model.ProductVariant{}
	if len(productIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+variantColumns+" FROM product_variants WHERE product_id IN (?) ORDER BY created_at ASC",
		productIDs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "build variant lookup query")
	}

	var variants []model.ProductVariant
	if err := sqlx.SelectContext(ctx, r.q, &variants, r.q.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find variants by products")
	}

	for _, v := range variants {
		result[v.ProductID] = append(result[v.ProductID], v)
	}
	return result, nil
}

// AdjustVariantStock applies a signed delta, refusing to take stock below
// zero. Returns the affected row count; zero means unknown variant or
// insufficient stock.
func (r *PGRepository) AdjustVariantStock(ctx context.Context, variantID string, delta int) (int64, error) {
	query := `
        UPDATE product_variants
        SET stock = stock + $1, updated_at = NOW()
        WHERE id = $2 AND stock + $1 >= 0
    `
	res, err := r.q.ExecContext(ctx, query, delta, variantID)
	if err != nil {
		return 0, errors.Wrap(err, "adjust variant stock")
	}
	return res.RowsAffected()
}
