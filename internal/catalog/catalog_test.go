package catalog

import (
	"testing"

	"soukBack/internal/models"
)

func TestResolveTopLevel(t *testing.T) {
	ids, ok := Default().Resolve("vehicles")
	if !ok {
		t.Fatal("expected vehicles to resolve")
	}
	want := []string{"vehicles", "cars", "motorcycles", "trucks", "spare-parts"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %v", len(want), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestResolveSubcategoryIsItself(t *testing.T) {
	ids, ok := Default().Resolve("phones")
	if !ok || len(ids) != 1 || ids[0] != "phones" {
		t.Fatalf("unexpected resolution: %v %v", ids, ok)
	}
}

func TestResolveUnknown(t *testing.T) {
	if _, ok := Default().Resolve("spaceships"); ok {
		t.Fatal("unknown category must not resolve")
	}
	if Default().Known("spaceships") {
		t.Fatal("unknown category reported as known")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	tree := New([]models.Category{{ID: "a", Name: "A", Subcategories: []models.Subcategory{{ID: "a1"}}}})
	all := tree.All()
	all[0].Subcategories[0].ID = "changed"
	if ids, _ := tree.Resolve("a"); ids[1] != "a1" {
		t.Fatalf("tree mutated through All(): %v", ids)
	}
	if c, _ := tree.Find("a"); c.Subcategories[0].ID != "a1" {
		t.Fatalf("category mutated through All(): %+v", c)
	}
}

func TestCategoryWithoutSubcategories(t *testing.T) {
	ids, ok := Default().Resolve("jobs")
	if !ok || len(ids) != 1 {
		t.Fatalf("unexpected resolution for jobs: %v %v", ids, ok)
	}
}
