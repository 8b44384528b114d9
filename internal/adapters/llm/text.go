package llm

import (
	"encoding/json"
	"strings"

	perr "trackergen/internal/platform/errors"
)

// StripFence removes a surrounding markdown code fence such as ```json ... ```
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// DecodeObject strips fences and parses text as a JSON object into generic values
// Prose around a single object is tolerated
func DecodeObject(text string) (map[string]any, error) {
	s := StripFence(text)
	if !strings.HasPrefix(s, "{") {
		i, j := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
		if i < 0 || j <= i {
			return nil, perr.UpstreamOutputf("llm output has no json object")
		}
		s = s[i : j+1]
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUpstreamOutput, "llm output is not a json object")
	}
	if out == nil {
		return nil, perr.UpstreamOutputf("llm output is null")
	}
	return out, nil
}

// Field readers for generic objects. They never panic on a wrong type

// String returns m[key] trimmed when it is a string
func String(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// Bool returns m[key] when it is a bool, accepting "true"/"false" strings
func Bool(m map[string]any, key string) (bool, bool) {
	switch v := m[key].(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Number returns m[key] when it is a number or a numeric string
func Number(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// Strings returns the non-empty trimmed strings of the list at m[key]
func Strings(m map[string]any, key string) []string {
	list, _ := m[key].([]any)
	out := make([]string, 0, len(list))
	for _, it := range list {
		if s, ok := it.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Objects returns the object entries of the list at m[key]
func Objects(m map[string]any, key string) []map[string]any {
	list, _ := m[key].([]any)
	out := make([]map[string]any, 0, len(list))
	for _, it := range list {
		if o, ok := it.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out
}
