package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON returns the JSON document embedded in a model reply. Models
// regularly wrap their answer in markdown code fences or surround it with
// prose even when told not to; this strips fences first and then falls back
// to the outermost brace pair. The result is not guaranteed to parse; it is
// the caller's input to json.Unmarshal.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimSpace(s)
	}

	if json.Valid([]byte(s)) {
		return s
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return strings.TrimSpace(s[start : end+1])
}

// UnmarshalLenient extracts the embedded JSON document from a model reply and
// unmarshals it into v.
func UnmarshalLenient(raw string, v any) error {
	doc := ExtractJSON(raw)
	if err := json.Unmarshal([]byte(doc), v); err != nil {
		return fmt.Errorf("model output is not valid JSON: %w", err)
	}
	return nil
}
