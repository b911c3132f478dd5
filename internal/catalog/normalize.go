package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeID canonicalizes an event identifier: surrounding whitespace is
// trimmed and the string is NFC-normalized, so visually identical IDs from
// different catalog exports compare equal and hit the same store row.
func NormalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}
