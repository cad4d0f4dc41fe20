package repository

import (
	"testing"

	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/stretchr/testify/assert"
)

func normalized(f *dto.ProductFilters) *dto.ProductFilters {
	f.Normalize()
	return f
}

func TestBuildListQuery_Defaults(t *testing.T) {
	f := normalized(&dto.ProductFilters{Paginate: true})

	listQuery, countQuery, args := buildListQuery(f)

	assert.Contains(t, listQuery, "ORDER BY p.created_at DESC")
	assert.Contains(t, listQuery, "LIMIT 5 OFFSET 0")
	assert.NotContains(t, listQuery, "image", "listing must never select image bytes")
	assert.Equal(t, "SELECT count(*) FROM products p", countQuery)
	assert.Empty(t, args)
}

func TestBuildListQuery_PaginationDisabled(t *testing.T) {
	f := normalized(&dto.ProductFilters{})

	listQuery, _, _ := buildListQuery(f)

	assert.NotContains(t, listQuery, "LIMIT")
	assert.NotContains(t, listQuery, "OFFSET")
}

func TestBuildListQuery_PageOffset(t *testing.T) {
	f := normalized(&dto.ProductFilters{Page: 3, PerPage: 5, Paginate: true})

	listQuery, _, _ := buildListQuery(f)

	assert.Contains(t, listQuery, "LIMIT 5 OFFSET 10")
}

func TestBuildListQuery_NameFilter(t *testing.T) {
	f := normalized(&dto.ProductFilters{Name: "shirt"})

	listQuery, countQuery, args := buildListQuery(f)

	assert.Contains(t, listQuery, "p.name ILIKE :name")
	assert.Contains(t, countQuery, "p.name ILIKE :name")
	assert.Equal(t, "%shirt%", args["name"])
}

func TestBuildListQuery_CategoryScopeAppliesToCount(t *testing.T) {
	f := normalized(&dto.ProductFilters{CategoryID: "c1"})

	listQuery, countQuery, args := buildListQuery(f)

	join := "JOIN product_categories pc ON pc.product_id = p.id AND pc.category_id = :category_id"
	assert.Contains(t, listQuery, join)
	assert.Contains(t, countQuery, join, "total must be counted against the scoped set")
	assert.Equal(t, "c1", args["category_id"])
}

func TestOrderClause_PriceSort(t *testing.T) {
	asc := normalized(&dto.ProductFilters{SortBy: "price", SortOrder: "asc"})
	desc := normalized(&dto.ProductFilters{SortBy: "price", SortOrder: "desc"})

	assert.Equal(t, maxVariantPrice+" ASC NULLS FIRST", orderClause(asc))
	assert.Equal(t, maxVariantPrice+" DESC NULLS LAST", orderClause(desc))
}

func TestOrderClause_WhitelistFallback(t *testing.T) {
	f := normalized(&dto.ProductFilters{SortBy: "name; DROP TABLE products", SortOrder: "asc"})

	assert.Equal(t, "p.created_at ASC", orderClause(f))
}

func TestOrderClause_WhitelistedColumns(t *testing.T) {
	f := normalized(&dto.ProductFilters{SortBy: "name", SortOrder: "asc"})
	assert.Equal(t, "p.name ASC", orderClause(f))

	f = normalized(&dto.ProductFilters{SortBy: "updated_at"})
	assert.Equal(t, "p.updated_at DESC", orderClause(f))
}
