package model

type Category struct {
	BaseModel
	Name  string `db:"name" json:"name"`
	Image []byte `db:"image" json:"-"` // never serialized; served via the image endpoint only
}
