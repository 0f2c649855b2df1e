package table

import (
	"fmt"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NormalizeName trims, lowercases and collapses every run of
// non-alphanumeric characters into a single underscore.
// NormalizeName(NormalizeName(s)) == NormalizeName(s).
func NormalizeName(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Normalize rewrites every column name with NormalizeName. Names that collide
// after normalization get a numeric suffix (_2, _3, ...) in column order.
// Original headers are left untouched so ColumnMap keeps working. Applying it
// again to an already normalized table leaves every name unchanged.
func (t *Table) Normalize() {
	seen := make(map[string]bool, len(t.cols))
	for _, c := range t.cols {
		name := NormalizeName(c.Name)
		if seen[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d", name, n)
				if !seen[candidate] {
					name = candidate
					break
				}
			}
		}
		seen[name] = true
		c.Name = name
	}
	t.normalized = true
}

// Normalized reports whether Normalize has been applied.
func (t *Table) Normalized() bool {
	return t.normalized
}
