package dto

import "math"

const (
	DefaultPage    = 1
	DefaultPerPage = 5
)

// ProductFilters drives the listing query. SortBy is matched against a
// column whitelist in the repository; "price" sorts by the maximum variant
// price computed at query time.
type ProductFilters struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id"`
	SortBy     string `json:"sort_by"`
	SortOrder  string `json:"sort_order"` // asc or desc, default desc
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Paginate   bool   `json:"paginate"` // when false, no limit/offset and no page metadata
}

// Normalize fills in listing defaults.
func (f *ProductFilters) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
}

// PageMeta is returned only when pagination is enabled.
type PageMeta struct {
	Page      int `json:"page"`
	PerPage   int `json:"per_page"`
	TotalItem int `json:"total_item"`
	TotalPage int `json:"total_page"`
}

func NewPageMeta(f *ProductFilters, total int) *PageMeta {
	return &PageMeta{
		Page:      f.Page,
		PerPage:   f.PerPage,
		TotalItem: total,
		TotalPage: int(math.Ceil(float64(total) / float64(f.PerPage))),
	}
}
