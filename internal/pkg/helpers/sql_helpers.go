package helpers

import "strings"

// NullableString returns nil for a blank string so optional text columns store NULL.
func NullableString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// StringValue dereferences a nullable column value, returning "" for NULL.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// LikePattern builds an ILIKE pattern for a free-text search term,
// escaping the wildcard characters the user typed.
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}
