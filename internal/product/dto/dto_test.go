package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Defaults(t *testing.T) {
	f := &ProductFilters{}
	f.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 5, f.PerPage)
	assert.Equal(t, "desc", f.SortOrder)
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	f := &ProductFilters{Page: 4, PerPage: 20, SortOrder: "asc"}
	f.Normalize()

	assert.Equal(t, 4, f.Page)
	assert.Equal(t, 20, f.PerPage)
	assert.Equal(t, "asc", f.SortOrder)
}

func TestNewPageMeta(t *testing.T) {
	cases := []struct {
		perPage   int
		total     int
		totalPage int
	}{
		{5, 12, 3},
		{5, 10, 2},
		{5, 0, 0},
		{10, 1, 1},
	}
	for _, tc := range cases {
		meta := NewPageMeta(&ProductFilters{Page: 1, PerPage: tc.perPage}, tc.total)
		assert.Equal(t, tc.totalPage, meta.TotalPage, "perPage=%d total=%d", tc.perPage, tc.total)
		assert.Equal(t, tc.total, meta.TotalItem)
	}
}

func TestUpdateProductInput_IsEmpty(t *testing.T) {
	assert.True(t, (&UpdateProductInput{ID: "p1"}).IsEmpty())

	name := "x"
	assert.False(t, (&UpdateProductInput{Name: &name}).IsEmpty())
	assert.False(t, (&UpdateProductInput{CategoryIDs: []string{"c1"}}).IsEmpty())
	assert.False(t, (&UpdateProductInput{Variants: []VariantInput{{Name: "S"}}}).IsEmpty())
	assert.False(t, (&UpdateProductInput{Image: []byte{1}}).IsEmpty())
}
