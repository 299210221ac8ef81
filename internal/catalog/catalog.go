// Package catalog holds the static category tree listings are filed under.
package catalog

import "soukBack/internal/models"

var defaultCategories = []models.Category{
	{ID: "vehicles", Name: "Vehicles", Subcategories: []models.Subcategory{
		{ID: "cars", Name: "Cars"},
		{ID: "motorcycles", Name: "Motorcycles"},
		{ID: "trucks", Name: "Trucks"},
		{ID: "spare-parts", Name: "Spare parts"},
	}},
	{ID: "real-estate", Name: "Real estate", Subcategories: []models.Subcategory{
		{ID: "apartments", Name: "Apartments"},
		{ID: "houses", Name: "Houses"},
		{ID: "land", Name: "Land"},
		{ID: "rentals", Name: "Rentals"},
	}},
	{ID: "electronics", Name: "Electronics", Subcategories: []models.Subcategory{
		{ID: "phones", Name: "Phones"},
		{ID: "computers", Name: "Computers"},
		{ID: "tv-audio", Name: "TV & audio"},
		{ID: "appliances", Name: "Appliances"},
	}},
	{ID: "fashion", Name: "Fashion", Subcategories: []models.Subcategory{
		{ID: "clothing", Name: "Clothing"},
		{ID: "shoes", Name: "Shoes"},
		{ID: "jewelry", Name: "Jewelry & watches"},
	}},
	{ID: "home-garden", Name: "Home & garden", Subcategories: []models.Subcategory{
		{ID: "furniture", Name: "Furniture"},
		{ID: "kitchen", Name: "Kitchen"},
		{ID: "garden", Name: "Garden"},
	}},
	{ID: "livestock", Name: "Livestock", Subcategories: []models.Subcategory{
		{ID: "camels", Name: "Camels"},
		{ID: "goats-sheep", Name: "Goats & sheep"},
		{ID: "poultry", Name: "Poultry"},
	}},
	{ID: "services", Name: "Services", Subcategories: []models.Subcategory{
		{ID: "repairs", Name: "Repairs"},
		{ID: "lessons", Name: "Lessons"},
		{ID: "transport", Name: "Transport"},
	}},
	{ID: "jobs", Name: "Jobs"},
}

// Tree indexes a category tree for membership tests. It is read-only after
// construction and safe for concurrent use.
type Tree struct {
	categories []models.Category
	members    map[string][]string
}

// New indexes cats. Every category maps to itself plus its subcategories; every
// subcategory maps to itself.
func New(cats []models.Category) *Tree {
	t := &Tree{categories: cats, members: make(map[string][]string)}
	for _, c := range cats {
		ids := []string{c.ID}
		for _, s := range c.Subcategories {
			ids = append(ids, s.ID)
			t.members[s.ID] = []string{s.ID}
		}
		t.members[c.ID] = ids
	}
	return t
}

var defaultTree = New(defaultCategories)

// Default returns the compiled-in tree.
func Default() *Tree { return defaultTree }

// All returns a copy of the top-level categories.
func (t *Tree) All() []models.Category {
	out := make([]models.Category, len(t.categories))
	for i, c := range t.categories {
		c.Subcategories = append([]models.Subcategory(nil), c.Subcategories...)
		out[i] = c
	}
	return out
}

func (t *Tree) Find(id string) (models.Category, bool) {
	for _, c := range t.categories {
		if c.ID == id {
			c.Subcategories = append([]models.Subcategory(nil), c.Subcategories...)
			return c, true
		}
	}
	return models.Category{}, false
}

// Known reports whether id is a category or subcategory key.
func (t *Tree) Known(id string) bool {
	_, ok := t.members[id]
	return ok
}

// Resolve returns {id} ∪ subcategories(id). ok is false for ids missing from the
// tree.
func (t *Tree) Resolve(id string) (ids []string, ok bool) {
	ids, ok = t.members[id]
	if !ok {
		return nil, false
	}
	return append([]string(nil), ids...), true
}
