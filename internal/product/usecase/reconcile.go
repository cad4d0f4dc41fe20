package usecase

import (
	"github.com/altastore/catalog-service/internal/model"
	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/altastore/catalog-service/pkg/apperrors"
)

// variantPlan is the outcome of diffing a product's persisted variants
// against the desired list of an edit request.
type variantPlan struct {
	toCreate []dto.VariantInput
	toUpdate []model.ProductVariant
	toDelete []string
}

// reconcileVariants partitions the desired list into creates (no ID),
// updates (ID matching an existing variant) and deletes (existing variants
// not claimed by any input). An input claiming an unknown ID fails the whole
// plan; executing it is the caller's job, inside one transaction.
//
// Only name, price and stock are carried over; anything else on the input is
// ignored.
func reconcileVariants(existing []model.ProductVariant, desired []dto.VariantInput) (*variantPlan, error) {
	existingByID := make(map[string]model.ProductVariant, len(existing))
	for _, v := range existing {
		existingByID[v.ID] = v
	}

	plan := &variantPlan{}
	claimed := make(map[string]bool, len(desired))

	for _, in := range desired {
		if in.ID == "" {
			plan.toCreate = append(plan.toCreate, in)
			continue
		}

		current, ok := existingByID[in.ID]
		if !ok {
			return nil, apperrors.InvalidReferencef("variant %s does not belong to this product", in.ID)
		}
		current.Name = in.Name
		current.Price = in.Price
		current.Stock = in.Stock
		plan.toUpdate = append(plan.toUpdate, current)
		claimed[in.ID] = true
	}

	for _, v := range existing {
		if !claimed[v.ID] {
			plan.toDelete = append(plan.toDelete, v.ID)
		}
	}

	return plan, nil
}
