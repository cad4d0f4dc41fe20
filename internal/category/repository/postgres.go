package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/altastore/catalog-service/internal/category/dto"
	"github.com/altastore/catalog-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// image excluded: only GetImage reads it.
const categoryColumns = "id, name, created_at, updated_at"

type PGRepository struct {
	db *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (id, name, image, created_at, updated_at)
        VALUES (:id, :name, :image, :created_at, :updated_at)
    `
	_, err := r.db.NamedExecContext(ctx, query, c)
	return errors.Wrap(err, "insert category")
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	query := "SELECT " + categoryColumns + " FROM categories WHERE id = $1 LIMIT 1"
	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find category")
	}
	return &c, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	args := map[string]interface{}{}
	where := ""
	if f.Name != "" {
		where = " WHERE name ILIKE :name"
		args["name"] = "%" + f.Name + "%"
	}

	var count int
	rows, err := sqlx.NamedQueryContext(ctx, r.db, "SELECT count(*) FROM categories"+where, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count categories")
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, errors.Wrap(err, "scan category count")
		}
	}

	query := "SELECT " + categoryColumns + " FROM categories" + where + " ORDER BY name ASC"
	if f.PerPage > 0 {
		offset := (f.Page - 1) * f.PerPage
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PerPage, offset)
	}

	listRows, err := sqlx.NamedQueryContext(ctx, r.db, query, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list categories")
	}
	defer listRows.Close()

	categories := []model.Category{}
	for listRows.Next() {
		var c model.Category
		if err := listRows.StructScan(&c); err != nil {
			return nil, 0, errors.Wrap(err, "scan category")
		}
		categories = append(categories, c)
	}
	return categories, count, listRows.Err()
}

func (r *PGRepository) Update(ctx context.Context, id string, name *string, image []byte) (int64, error) {
	sets := []string{"updated_at = :updated_at"}
	args := map[string]interface{}{
		"id":         id,
		"updated_at": time.Now(),
	}
	if name != nil {
		sets = append(sets, "name = :name")
		args["name"] = *name
	}
	if len(image) > 0 {
		sets = append(sets, "image = :image")
		args["image"] = image
	}

	query := "UPDATE categories SET " + strings.Join(sets, ", ") + " WHERE id = :id"
	res, err := r.db.NamedExecContext(ctx, query, args)
	if err != nil {
		return 0, errors.Wrap(err, "update category")
	}
	return res.RowsAffected()
}

func (r *PGRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return 0, errors.Wrap(err, "delete category")
	}
	return res.RowsAffected()
}

func (r *PGRepository) GetImage(ctx context.Context, id string) ([]byte, error) {
	var image []byte
	err := r.db.GetContext(ctx, &image, "SELECT image FROM categories WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get category image")
	}
	return image, nil
}
