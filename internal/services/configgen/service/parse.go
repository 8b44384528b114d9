package service

import (
	"strings"
	"unicode"

	"trackergen/internal/adapters/llm"
	"trackergen/internal/core/normalize"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/services/configgen/domain"
)

const (
	maxLabelLen = 80
	maxTextLen  = 300
)

// answer is the validated model reply: exactly one of cfg or clarify is set
type answer struct {
	confidence float64
	cfg        *domain.TrackerConfig
	clarify    *domain.Clarify
}

func parseAnswer(text string) (answer, error) {
	obj, err := llm.DecodeObject(text)
	if err != nil {
		return answer{}, err
	}
	conf, _ := llm.Number(obj, "confidence")
	conf = clamp01(conf)

	needs, ok := llm.Bool(obj, "needs_clarification")
	if !ok {
		// a bare config object is accepted as a ready answer
		_, wrapped := obj["config"].(map[string]any)
		needs = !wrapped && llm.String(obj, "name") == ""
	}
	if needs {
		qs := llm.Strings(obj, "questions")
		if len(qs) == 0 {
			if q := llm.String(obj, "question"); q != "" {
				qs = []string{q}
			}
		}
		qs = cleanTexts(qs, maxTextLen, 3)
		if len(qs) == 0 {
			return answer{}, perr.UpstreamOutputf("clarification without a question")
		}
		final, _ := llm.Bool(obj, "final_question")
		reason := text80(llm.String(obj, "reason"))
		if reason == "" {
			reason = domain.ReasonNeedsDetail
		}
		return answer{confidence: conf, clarify: &domain.Clarify{
			Confidence:    conf,
			FinalQuestion: final,
			Questions:     qs,
			Reason:        reason,
		}}, nil
	}

	body, _ := obj["config"].(map[string]any)
	if body == nil {
		body = obj
	}
	cfg, err := parseConfig(body)
	if err != nil {
		return answer{}, err
	}
	return answer{confidence: conf, cfg: &cfg}, nil
}

func parseConfig(m map[string]any) (domain.TrackerConfig, error) {
	var missing []string
	str := func(key string, max int) string {
		v := cleanText(llm.String(m, key), max)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := domain.TrackerConfig{
		Name:                str("name", maxLabelLen),
		Description:         str("description", maxTextLen),
		Icon:                str("icon", 16),
		Category:            str("category", maxLabelLen),
		SeverityLabel:       str("severityLabel", maxLabelLen),
		SeverityLowLabel:    str("severityLowLabel", maxLabelLen),
		SeverityHighLabel:   str("severityHighLabel", maxLabelLen),
		DurationLabel:       str("durationLabel", maxLabelLen),
		LocationLabel:       str("locationLabel", maxLabelLen),
		LocationPlaceholder: str("locationPlaceholder", maxLabelLen),
		TriggersLabel:       str("triggersLabel", maxLabelLen),
		TriggersPlaceholder: str("triggersPlaceholder", maxLabelLen),
		NotesLabel:          str("notesLabel", maxLabelLen),
		NotesPlaceholder:    str("notesPlaceholder", maxTextLen),
		Locations:           parseLocations(m),
		Triggers:            cleanTexts(llm.Strings(m, "triggers"), maxLabelLen, domain.MaxTriggers),
		SuggestedHashtags:   hashtags(llm.Strings(m, "suggestedHashtags")),
	}
	if len(cfg.Locations) == 0 {
		missing = append(missing, "locations")
	}
	if len(cfg.Triggers) == 0 {
		missing = append(missing, "triggers")
	}
	if len(cfg.SuggestedHashtags) == 0 {
		missing = append(missing, "suggestedHashtags")
	}
	if len(missing) > 0 {
		return domain.TrackerConfig{}, perr.UpstreamOutputf("config missing %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// parseLocations accepts {value,label} objects or bare labels
func parseLocations(m map[string]any) []domain.Location {
	raw, _ := m["locations"].([]any)
	out := make([]domain.Location, 0, min(len(raw), domain.MaxLocations))
	seen := map[string]struct{}{}
	for _, it := range raw {
		var value, label string
		switch v := it.(type) {
		case string:
			label = v
		case map[string]any:
			value, label = llm.String(v, "value"), llm.String(v, "label")
			if label == "" {
				label = value
			}
		}
		label = cleanText(label, maxLabelLen)
		if value == "" {
			value = label
		}
		value = normalize.Slug(value)
		if label == "" || value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, domain.Location{Value: value, Label: label})
		if len(out) == domain.MaxLocations {
			break
		}
	}
	return out
}

// hashtags normalizes to #lowercase with letters, digits and underscores only
func hashtags(in []string) []string {
	out := make([]string, 0, min(len(in), domain.MaxHashtags))
	seen := map[string]struct{}{}
	for _, raw := range in {
		var b strings.Builder
		for _, r := range normalize.Key(raw) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
				b.WriteRune(unicode.ToLower(r))
			}
		}
		if b.Len() == 0 {
			continue
		}
		tag := "#" + b.String()
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == domain.MaxHashtags {
			break
		}
	}
	return out
}

// cleanText drops control characters, collapses spaces and bounds the length in runes
func cleanText(s string, max int) string {
	s = normalize.CollapseSpaces(normalize.StripControls(s), false)
	if r := []rune(s); len(r) > max {
		s = strings.TrimSpace(string(r[:max]))
	}
	return s
}

func cleanTexts(in []string, max, n int) []string {
	out := make([]string, 0, min(len(in), n))
	seen := map[string]struct{}{}
	for _, s := range in {
		s = cleanText(s, max)
		if s == "" {
			continue
		}
		k := normalize.Key(s)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

func text80(s string) string { return cleanText(s, maxLabelLen) }

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
