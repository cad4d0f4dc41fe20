package repository

import (
	"context"

	"github.com/altastore/catalog-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const voucherColumns = "id, product_id, code, name, discount_percent, max_discount, starts_at, expires_at, is_active, created_at, updated_at"

type PGRepository struct {
	db *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) FindByProduct(ctx context.Context, productID string) ([]model.Voucher, error) {
	vouchers := []model.Voucher{}
	query := "SELECT " + voucherColumns + " FROM vouchers WHERE product_id = $1 ORDER BY created_at DESC"
	err := r.db.SelectContext(ctx, &vouchers, query, productID)
	return vouchers, errors.Wrap(err, "find vouchers")
}

func (r *PGRepository) FindByProductIDs(ctx context.Context, productIDs []string) (map[string][]model.Voucher, error) {
	result := map[string][]model.Voucher{}
	if len(productIDs) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+voucherColumns+" FROM vouchers WHERE product_id IN (?) ORDER BY created_at DESC",
		productIDs,
	)
	if err != nil {
		return nil, errors.Wrap(err, "build voucher lookup query")
	}

	var vouchers []model.Voucher
	if err := r.db.SelectContext(ctx, &vouchers, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "find vouchers by products")
	}

	for _, v := range vouchers {
		result[v.ProductID] = append(result[v.ProductID], v)
	}
	return result, nil
}
