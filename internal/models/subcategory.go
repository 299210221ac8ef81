package models

type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
