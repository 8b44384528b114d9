package http

import (
	"trackergen/internal/core/sanitize"
)

// Inbound text limits, in runes
const (
	maxNameLen        = sanitize.DefaultMaxLength
	maxDefinitionLen  = 300
	maxSummaryLen     = 600
	maxTermLen        = 60
	maxDescriptionLen = 500
	maxHistoryLen     = 300
)

// scrubber sanitizes request fields and remembers which ones looked like injection
type scrubber struct {
	hits []string
}

func (s *scrubber) one(field, v string, max int) string {
	if v == "" {
		return ""
	}
	res := sanitize.ForPrompt(v, sanitize.Options{MaxLength: max, CheckInjection: true})
	if res.InjectionDetected {
		s.hits = append(s.hits, field)
	}
	return res.Value
}

func (s *scrubber) list(field string, in []string, max int) []string {
	if len(in) == 0 {
		return nil
	}
	rs := sanitize.ForPromptAll(in, sanitize.Options{MaxLength: max, CheckInjection: true})
	if sanitize.AnyInjection(rs) {
		s.hits = append(s.hits, field)
	}
	return sanitize.Values(rs)
}
