// Package validation checks user input before it reaches storage: form fields,
// phone numbers, passwords and uploaded images.
package validation

import (
	"sort"
	"strings"
)

// Errors maps a form field to the reason it was rejected.
type Errors map[string]string

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns nil when no field was rejected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
