package service

import (
	"fmt"

	"trackergen/internal/core/ambiguity"
	"trackergen/internal/core/normalize"
)

type template struct {
	category string
	label    string
	desc     string
}

// fallbacks fill a short ambiguous answer, in this order
var fallbacks = []template{
	{"symptom/condition", "%s (symptom)", "Track %s as a symptom or condition: when it happens, how strong it is and how long it lasts."},
	{"activity/exercise", "%s (activity)", "Track %s as an activity or exercise session: duration, intensity and where it happened."},
	{"habit/behavior", "%s (habit)", "Track %s as a habit or behavior: how often it happens and what prompted it."},
	{"nutrition/intake", "%s (intake)", "Track %s as something consumed: amount, time and context."},
	{"measurement/reading", "%s (measurement)", "Track %s as a measured value or reading over time."},
	{"device/object", "%s (device or object)", "Track use of %s as a device or object: when and how it was used."},
}

// fillFallbacks appends template interpretations until there are MinInterpretations
// Templates whose slug is already present are skipped
func fillFallbacks(name string, have []ambiguity.Interpretation) ([]ambiguity.Interpretation, bool) {
	if len(have) >= ambiguity.MinInterpretations {
		return have, false
	}
	display := name
	if display == "" {
		display = "this"
	}
	base := normalize.Slug(name)

	out := append([]ambiguity.Interpretation(nil), have...)
	seen := make(map[string]struct{}, len(out)+len(fallbacks))
	for _, it := range out {
		seen[it.Value] = struct{}{}
	}
	used := false
	for _, t := range fallbacks {
		if len(out) >= ambiguity.MinInterpretations {
			break
		}
		value := normalize.Slug(t.category)
		if base != "" {
			value = base + "-" + value
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, ambiguity.Interpretation{
			Value:       value,
			Label:       fmt.Sprintf(t.label, display),
			Description: fmt.Sprintf(t.desc, display),
		})
		used = true
	}
	return out, used
}
