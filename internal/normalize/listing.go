// Package normalize turns raw listing records (database rows, fixture JSON)
// into the canonical models.Listing. It never fails: malformed input is coerced
// to defaults.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"soukBack/internal/models"
)

const (
	DefaultTitle       = "No Title"
	DefaultDescription = "No Description"
	DefaultLocation    = "Unknown Location"
)

// RawListing is a listing record as it arrives from storage or fixtures. Every
// field may be missing.
type RawListing struct {
	ID          string                `json:"id"`
	SellerID    string                `json:"seller_id"`
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Price       *Price                `json:"price"`
	Category    *string               `json:"category"`
	Location    *string               `json:"location"`
	Image       *string               `json:"image"`
	ImageURL    *string               `json:"image_url"`
	Condition   *string               `json:"condition"`
	Features    json.RawMessage       `json:"features"`
	Images      json.RawMessage       `json:"images"`
	IsSold      bool                  `json:"is_sold"`
	Seller      *models.SellerSummary `json:"seller"`
	CreatedAt   *time.Time            `json:"created_at"`
	UpdatedAt   *time.Time            `json:"updated_at"`
}

// Price accepts a JSON number or a numeric string. Anything else decodes to 0.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		*p = 0
		return nil
	}
	*p = Price(v)
	return nil
}

func Normalize(r RawListing) models.Listing {
	l := models.Listing{
		ID:          r.ID,
		SellerID:    r.SellerID,
		Title:       orDefault(r.Title, DefaultTitle),
		Description: orDefault(r.Description, DefaultDescription),
		Category:    orDefault(r.Category, ""),
		Location:    orDefault(r.Location, DefaultLocation),
		Image:       orDefault(r.Image, orDefault(r.ImageURL, "")),
		Condition:   models.Condition(orDefault(r.Condition, string(models.ConditionUnknown))),
		IsSold:      r.IsSold,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.Price != nil {
		v := float64(*r.Price)
		if v > 0 && !math.IsInf(v, 0) {
			l.Price = v
		}
	}

	features, _ := decodeStrings(r.Features)
	images, ok := decodeStrings(r.Images)
	if !ok {
		features, images = PartitionLegacyFeatures(features)
	}
	l.Features = nonNil(features)
	l.Images = nonNil(images)

	if r.Seller != nil {
		l.Seller = *r.Seller
	}
	if r.CreatedAt != nil {
		l.CreatedAt = *r.CreatedAt
	}
	return l
}

// NormalizeAll normalizes every record, keeping order.
func NormalizeAll(raws []RawListing) []models.Listing {
	out := make([]models.Listing, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

// decodeStrings reads a JSON array keeping its string elements. ok is false when
// raw is absent or not an array.
func decodeStrings(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
