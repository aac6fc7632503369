package hooks

// snakeToCamel maps the incoming snake_case keys to the canonical
// camelCase set, per spec.md §4.5. Keys not in this table pass through
// unchanged, so hook-specific keys (e.g. "iteration", "max_iterations")
// survive normalization even though only the fixed set is renamed.
var snakeToCamel = map[string]string{
	"session_id":    "sessionId",
	"tool_name":     "toolName",
	"tool_input":    "toolInput",
	"tool_response": "toolOutput",
	"cwd":           "directory",
}

// normalizePayload converts any recognized snake_case key in raw to its
// camelCase equivalent, producing a new map so the caller's input is never
// mutated in place. Runs before validation so callers may send either
// convention, per spec.md §4.5. A camelCase key present directly in the
// payload always wins over a snake_case alias also present, independent of
// map iteration order.
func normalizePayload(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))

	// Pass 1: keys that are already canonical camelCase names take
	// priority.
	for _, camel := range snakeToCamel {
		if v, ok := raw[camel]; ok {
			out[camel] = v
		}
	}
	// Pass 2: every other key, renaming snake_case aliases that weren't
	// already set by pass 1.
	for k, v := range raw {
		if _, isCamelName := out[k]; isCamelName {
			continue
		}
		canonical := k
		if camel, ok := snakeToCamel[k]; ok {
			canonical = camel
			if _, already := out[canonical]; already {
				continue
			}
		}
		out[canonical] = v
	}
	return out
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func mapField(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if asMap, ok := v.(map[string]any); ok {
			return asMap
		}
	}
	return nil
}

// toHookInput builds a HookInput from a normalized payload map.
func toHookInput(normalized map[string]any) HookInput {
	return HookInput{
		SessionID:  stringField(normalized, "sessionId"),
		Directory:  stringField(normalized, "directory"),
		Prompt:     stringField(normalized, "prompt"),
		ToolName:   stringField(normalized, "toolName"),
		ToolInput:  mapField(normalized, "toolInput"),
		ToolOutput: stringField(normalized, "toolOutput"),
		Raw:        normalized,
	}
}
