package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"soukBack/internal/catalog"
	"soukBack/internal/models"
	"soukBack/internal/normalize"
)

// Where renders c as a SQL condition over the listings table, with every column
// prefixed by alias (for example "l."). Placeholders are '?'.
//
// The condition accepts a superset of what Compile(c, tree) accepts, so callers
// must re-apply the Matcher to the returned rows. Empty columns are compared
// through the same defaults normalization substitutes.
func Where(c Criteria, tree *catalog.Tree, alias string) (string, []any) {
	m := Compile(c, tree)
	conds := []string{"1=1"}
	var args []any

	// Features are stored JSON-encoded. Queries holding a character the
	// encoder escapes cannot match the stored text; leave them to the Matcher.
	if m.query != "" && !hasJSONEscapes(m.query) {
		pattern := "%" + escapeLike(m.query) + "%"
		ors := make([]string, 0, len(SearchableFields))
		for _, f := range SearchableFields {
			ors = append(ors, fmt.Sprintf("LOWER(COALESCE(NULLIF(%s%s, ''), ?)) LIKE ? ESCAPE '!'", alias, f.Column))
			args = append(args, f.Default, pattern)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if m.categories != nil {
		ids, _ := tree.Resolve(strings.TrimSpace(c.Category))
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		conds = append(conds, fmt.Sprintf("%scategory IN (%s)", alias, placeholders))
		for _, id := range ids {
			args = append(args, id)
		}
	}

	// Normalized prices are never negative, so a lower bound <= 0 admits all rows.
	if m.minPrice != nil && *m.minPrice > 0 {
		conds = append(conds, fmt.Sprintf("COALESCE(%sprice, 0) >= ?", alias))
		args = append(args, *m.minPrice)
	}
	if m.maxPrice != nil {
		conds = append(conds, fmt.Sprintf("COALESCE(%sprice, 0) <= ?", alias))
		args = append(args, *m.maxPrice)
	}

	if m.location != "" {
		conds = append(conds, fmt.Sprintf("LOWER(COALESCE(NULLIF(%slocation, ''), ?)) LIKE ? ESCAPE '!'", alias))
		args = append(args, normalize.DefaultLocation, "%"+escapeLike(m.location)+"%")
	}

	if m.condition != "" {
		conds = append(conds, fmt.Sprintf("COALESCE(NULLIF(%sitem_condition, ''), ?) = ?", alias))
		args = append(args, string(models.ConditionUnknown), m.condition)
	}

	return strings.Join(conds, " AND "), args
}

// hasJSONEscapes reports whether encoding/json (without HTML escaping) writes
// any rune of s as an escape sequence.
func hasJSONEscapes(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r < 0x20 || r == '"' || r == '\\' || r == '\u2028' || r == '\u2029' || r == utf8.RuneError
	})
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}
