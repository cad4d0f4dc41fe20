package voucher

import (
	"context"

	"github.com/altastore/catalog-service/internal/model"
)

// Repository is read-only: vouchers are managed by another service and only
// attached to product payloads here.
type Repository interface {
	FindByProduct(ctx context.Context, productID string) ([]model.Voucher, error)
	FindByProductIDs(ctx context.Context, productIDs []string) (map[string][]model.Voucher, error)
}
