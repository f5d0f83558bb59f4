package collector

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// QuerySetHash derives the stable identity of a query set. Each query is
// trimmed and has internal whitespace collapsed, the set is sorted, and the
// result is the hex SHA-256 of the sorted queries joined by newlines.
// Reordering or reformatting the queries therefore yields the same hash,
// while adding, removing, or editing one yields a new cursor identity.
func QuerySetHash(queries []string) string {
	normalized := make([]string, 0, len(queries))
	for _, query := range queries {
		collapsed := strings.Join(strings.Fields(query), " ")
		if collapsed == "" {
			continue
		}
		normalized = append(normalized, collapsed)
	}
	sort.Strings(normalized)

	sum := sha256.Sum256([]byte(strings.Join(normalized, "\n")))
	return hex.EncodeToString(sum[:])
}

// ShortHash truncates a query-set hash to the 16-character form used in
// logs and CLI output.
func ShortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16]
}

// CombinedQuery joins a query set into the single upstream search
// expression, preserving the original order.
func CombinedQuery(queries []string) string {
	trimmed := make([]string, 0, len(queries))
	for _, query := range queries {
		collapsed := strings.Join(strings.Fields(query), " ")
		if collapsed == "" {
			continue
		}
		trimmed = append(trimmed, collapsed)
	}
	return strings.Join(trimmed, " OR ")
}
