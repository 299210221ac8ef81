// Package search implements the listing filter predicate. The same definition
// drives the in-memory filter and the SQL prefilter built by Where.
package search

import (
	"cmp"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"soukBack/internal/catalog"
	"soukBack/internal/models"
	"soukBack/internal/normalize"
)

type Criteria struct {
	Query     string   `json:"q"`
	Category  string   `json:"category"`
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	Location  string   `json:"location"`
	Condition string   `json:"condition"`
}

// Field is a text field the free-text query is matched against. Default is the
// value normalization substitutes when the stored column is empty.
type Field struct {
	Column  string
	Default string
	Values  func(models.Listing) []string
}

// SearchableFields is the single list of fields covered by free-text search.
var SearchableFields = []Field{
	{Column: "title", Default: normalize.DefaultTitle, Values: func(l models.Listing) []string { return []string{l.Title} }},
	{Column: "description", Default: normalize.DefaultDescription, Values: func(l models.Listing) []string { return []string{l.Description} }},
	{Column: "location", Default: normalize.DefaultLocation, Values: func(l models.Listing) []string { return []string{l.Location} }},
	{Column: "item_condition", Default: string(models.ConditionUnknown), Values: func(l models.Listing) []string { return []string{string(l.Condition)} }},
	{Column: "features", Default: "[]", Values: func(l models.Listing) []string { return l.Features }},
}

// Matcher is a compiled Criteria.
type Matcher struct {
	query      string
	categories map[string]struct{}
	minPrice   *float64
	maxPrice   *float64
	location   string
	condition  string
}

// Compile resolves the category against tree and lower-cases the text filters.
// A category missing from tree disables category filtering.
func Compile(c Criteria, tree *catalog.Tree) Matcher {
	m := Matcher{
		query:     strings.ToLower(strings.TrimSpace(c.Query)),
		minPrice:  c.MinPrice,
		maxPrice:  c.MaxPrice,
		location:  strings.ToLower(strings.TrimSpace(c.Location)),
		condition: strings.TrimSpace(c.Condition),
	}
	if cat := strings.TrimSpace(c.Category); cat != "" && tree != nil {
		if ids, ok := tree.Resolve(cat); ok {
			m.categories = make(map[string]struct{}, len(ids))
			for _, id := range ids {
				m.categories[id] = struct{}{}
			}
		}
	}
	return m
}

// MatchesAll reports whether the matcher accepts every listing.
func (m Matcher) MatchesAll() bool {
	return m.query == "" && m.categories == nil && m.minPrice == nil && m.maxPrice == nil &&
		m.location == "" && m.condition == ""
}

func (m Matcher) Match(l models.Listing) bool {
	return m.matchQuery(l) &&
		m.matchCategory(l) &&
		m.matchPrice(l) &&
		m.matchLocation(l) &&
		m.matchCondition(l)
}

func (m Matcher) matchQuery(l models.Listing) bool {
	if m.query == "" {
		return true
	}
	for _, f := range SearchableFields {
		for _, v := range f.Values(l) {
			if strings.Contains(strings.ToLower(v), m.query) {
				return true
			}
		}
	}
	return false
}

func (m Matcher) matchCategory(l models.Listing) bool {
	if m.categories == nil {
		return true
	}
	_, ok := m.categories[l.Category]
	return ok
}

func (m Matcher) matchPrice(l models.Listing) bool {
	if m.minPrice != nil && l.Price < *m.minPrice {
		return false
	}
	if m.maxPrice != nil && l.Price > *m.maxPrice {
		return false
	}
	return true
}

func (m Matcher) matchLocation(l models.Listing) bool {
	return m.location == "" || strings.Contains(strings.ToLower(l.Location), m.location)
}

func (m Matcher) matchCondition(l models.Listing) bool {
	return m.condition == "" || string(l.Condition) == m.condition
}

// Apply returns the listings accepted by c, in input order.
func Apply(listings []models.Listing, c Criteria, tree *catalog.Tree) []models.Listing {
	return Compile(c, tree).Filter(listings)
}

func (m Matcher) Filter(listings []models.Listing) []models.Listing {
	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if m.Match(l) {
			out = append(out, l)
		}
	}
	return out
}

type Sort int

const (
	SortNewest Sort = iota
	SortPriceAsc
	SortPriceDesc
)

// ParseSort accepts the names used by the web client and the numeric codes of
// the older mobile client. Anything else sorts newest first.
func ParseSort(s string) Sort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "price_asc", "2":
		return SortPriceAsc
	case "price_desc", "3":
		return SortPriceDesc
	default:
		return SortNewest
	}
}

func (s Sort) String() string {
	switch s {
	case SortPriceAsc:
		return "price_asc"
	case SortPriceDesc:
		return "price_desc"
	default:
		return "newest"
	}
}

// SortListings sorts in place. Ties keep their relative order.
func SortListings(listings []models.Listing, s Sort) {
	switch s {
	case SortPriceAsc:
		slices.SortStableFunc(listings, func(a, b models.Listing) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(listings, func(a, b models.Listing) int { return cmp.Compare(b.Price, a.Price) })
	default:
		slices.SortStableFunc(listings, func(a, b models.Listing) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
}

// ParsePrice parses an optional price bound; empty or malformed input is unset.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
