// Package fixtures ships sample listings used to seed an empty database. Read
// paths never fall back to them.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"soukBack/internal/normalize"
)

//go:embed listings.json
var listingsJSON []byte

// Listings decodes the embedded sample records. They are heterogeneous on
// purpose and must go through normalize before use.
func Listings() ([]normalize.RawListing, error) {
	var raw []normalize.RawListing
	if err := json.Unmarshal(listingsJSON, &raw); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return raw, nil
}
