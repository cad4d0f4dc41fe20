package dto

type CreateCategoryInput struct {
	Name  string `json:"name"`
	Image []byte `json:"-"`
}

// UpdateCategoryInput carries a partial edit; nil means "leave unchanged".
type UpdateCategoryInput struct {
	ID    string  `json:"-"`
	Name  *string `json:"name"`
	Image []byte  `json:"-"`
}

func (in *UpdateCategoryInput) IsEmpty() bool {
	return in.Name == nil && len(in.Image) == 0
}

type CategoryFilters struct {
	Name    string `json:"name"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

func (f *CategoryFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 5
	}
}
