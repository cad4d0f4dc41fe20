package repository

import (
	"fmt"
	"strings"

	"github.com/altastore/catalog-service/internal/product/dto"
)

// productColumns deliberately excludes the image column: listing and detail
// reads never load image bytes, only the dedicated image fetch does.
const productColumns = "p.id, p.name, p.description, p.is_active, p.created_at, p.updated_at"

// maxVariantPrice is the derived "price" sort key: the maximum price across
// a product's variants, computed per product at query time.
const maxVariantPrice = "(SELECT MAX(v.price) FROM product_variants v WHERE v.product_id = p.id)"

// sortColumns whitelists the sortable product columns. Anything else falls
// back to created_at.
var sortColumns = map[string]string{
	"id":         "p.id",
	"name":       "p.name",
	"created_at": "p.created_at",
	"updated_at": "p.updated_at",
}

// buildListQuery renders the listing and count statements plus their named
// arguments. Both share the same WHERE so a category-scoped total is counted
// against the scoped set, not the whole table.
func buildListQuery(f *dto.ProductFilters) (listQuery, countQuery string, args map[string]interface{}) {
	args = map[string]interface{}{}

	from := " FROM products p"
	if f.CategoryID != "" {
		from += " JOIN product_categories pc ON pc.product_id = p.id AND pc.category_id = :category_id"
		args["category_id"] = f.CategoryID
	}

	where := ""
	if f.Name != "" {
		where = " WHERE p.name ILIKE :name"
		args["name"] = "%" + f.Name + "%"
	}

	countQuery = "SELECT count(*)" + from + where

	listQuery = "SELECT " + productColumns + from + where + " ORDER BY " + orderClause(f)
	if f.Paginate {
		offset := (f.Page - 1) * f.PerPage
		listQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PerPage, offset)
	}

	return listQuery, countQuery, args
}

// orderClause maps the requested sort onto whitelisted columns or the
// derived max variant price. Products without variants have a NULL price key
// and always sort below any priced product, in both directions: NULLS FIRST
// ascending, NULLS LAST descending.
func orderClause(f *dto.ProductFilters) string {
	dir := "DESC"
	if strings.ToLower(f.SortOrder) == "asc" {
		dir = "ASC"
	}

	if f.SortBy == "price" {
		if dir == "ASC" {
			return maxVariantPrice + " ASC NULLS FIRST"
		}
		return maxVariantPrice + " DESC NULLS LAST"
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "p.created_at"
	}
	return col + " " + dir
}
