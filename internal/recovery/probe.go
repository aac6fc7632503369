package recovery

import "strings"

// textFields lists the dotted-path field names probed on a structured error
// value, in the order spec.md §4.3.1 names them.
var textFields = []string{
	"message",
	"body",
	"details",
	"reason",
	"description",
	"data.responseBody",
	"data.message",
	"error.message",
	"error.error.message",
}

// ExtractTextSources inspects an opaque error value (string, map, or nested
// maps/slices of either) and returns every plausible text source it can
// find, per spec.md §4.3.1 and the Design Note in spec.md §9: this is
// deliberately a type-switch based inspection utility, not a pre-declared
// vendor error schema.
func ExtractTextSources(v any) []string {
	var out []string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val != "" {
			out = append(out, val)
		}
	case error:
		out = append(out, val.Error())
	case map[string]any:
		for _, field := range textFields {
			if s, ok := lookupDotted(val, field); ok && s != "" {
				out = append(out, s)
			}
		}
		// Also probe any top-level string values not already covered by
		// the named fields, so unknown vendor shapes still contribute
		// text for classification.
		for k, v2 := range val {
			if contains(textFields, k) {
				continue
			}
			if s, ok := v2.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range val {
			out = append(out, ExtractTextSources(item)...)
		}
	default:
		return nil
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// lookupDotted resolves a dotted path like "data.responseBody" against a
// map[string]any, returning ok=false if any segment is missing or not a
// string/map.
func lookupDotted(m map[string]any, path string) (string, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for i, p := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		next, ok := asMap[p]
		if !ok {
			return "", false
		}
		if i == len(parts)-1 {
			s, ok := next.(string)
			return s, ok
		}
		cur = next
	}
	return "", false
}

// JoinedText joins every extracted text source for case-insensitive
// phrase matching, per spec.md §4.3.1 ("Extracted sources are joined and
// matched case-insensitively").
func JoinedText(v any) string {
	return strings.ToLower(strings.Join(ExtractTextSources(v), "\n"))
}
