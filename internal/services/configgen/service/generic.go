package service

import (
	"strings"

	"trackergen/internal/services/configgen/domain"
)

var (
	genericLocations = set("general", "positive", "negative", "neutral")
	genericTriggers  = set("note", "important", "follow-up", "recurring")
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, s string) bool {
	_, ok := m[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// genericLocationList is true for three or fewer entries or when every label is a placeholder
func genericLocationList(locs []domain.Location) bool {
	if len(locs) <= 3 {
		return true
	}
	for _, l := range locs {
		if !in(genericLocations, l.Label) {
			return false
		}
	}
	return true
}

// genericTriggerList is true for four or fewer entries that are all placeholders
func genericTriggerList(triggers []string) bool {
	if len(triggers) > 4 {
		return false
	}
	for _, t := range triggers {
		if !in(genericTriggers, t) {
			return false
		}
	}
	return true
}

// isGeneric reports whether a config would be useless despite the model's confidence
func isGeneric(c domain.TrackerConfig) bool {
	return genericLocationList(c.Locations) || genericTriggerList(c.Triggers)
}
