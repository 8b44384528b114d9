// Package domain defines tracker configs and the generation outcome
package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"trackergen/internal/adapters/llm"
	gdom "trackergen/internal/services/gather/domain"
)

// List bounds for a generated config
const (
	MinLocations = 6
	MaxLocations = 10
	MinTriggers  = 8
	MaxTriggers  = 12
	MinHashtags  = 5
	MaxHashtags  = 8
)

// Clarify reasons
const (
	ReasonNoContext     = "no_context"
	ReasonLowConfidence = "low_confidence"
	ReasonGenericOutput = "generic_output"
	ReasonNeedsDetail   = "needs_more_detail"
)

// Location is one selectable place or body area
type Location struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TrackerConfig is a ready to use tracker definition
type TrackerConfig struct {
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Icon                string     `json:"icon"`
	Category            string     `json:"category"`
	SeverityLabel       string     `json:"severityLabel"`
	SeverityLowLabel    string     `json:"severityLowLabel"`
	SeverityHighLabel   string     `json:"severityHighLabel"`
	DurationLabel       string     `json:"durationLabel"`
	LocationLabel       string     `json:"locationLabel"`
	LocationPlaceholder string     `json:"locationPlaceholder"`
	Locations           []Location `json:"locations"`
	TriggersLabel       string     `json:"triggersLabel"`
	TriggersPlaceholder string     `json:"triggersPlaceholder"`
	Triggers            []string   `json:"triggers"`
	NotesLabel          string     `json:"notesLabel"`
	NotesPlaceholder    string     `json:"notesPlaceholder"`
	SuggestedHashtags   []string   `json:"suggestedHashtags"`
}

// HistoryEntry is one earlier clarifying question and the user's answer
type HistoryEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Selection is the interpretation the user picked after an ambiguity check
// Clients send either the interpretation object or its label as a string
type Selection struct {
	Value       string `json:"value,omitempty"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts a bare string or an object
func (s *Selection) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var label string
		if err := json.Unmarshal(b, &label); err != nil {
			return err
		}
		*s = Selection{Label: label}
		return nil
	}
	type plain Selection
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Selection(p)
	return nil
}

// Empty reports whether nothing was selected
func (s Selection) Empty() bool {
	return strings.TrimSpace(s.Value+s.Label+s.Description) == ""
}

// GenerateInput is one generation turn; text is expected to be sanitized already
type GenerateInput struct {
	Name            string
	Context         gdom.Context
	UserDescription string
	Selected        Selection
	History         []HistoryEntry
}

// Outcome is Ready or Clarify
type Outcome interface{ isOutcome() }

// Ready carries a finished config
type Ready struct {
	Config TrackerConfig
}

// Clarify asks the user for one more answer
type Clarify struct {
	Confidence    float64
	FinalQuestion bool
	Questions     []string
	Reason        string
}

func (Ready) isOutcome()   {}
func (Clarify) isOutcome() {}

// GeneratorPort turns a name and its context into an Outcome
type GeneratorPort interface {
	Generate(ctx context.Context, in GenerateInput) (Outcome, error)
}

// LLMPort is the completion call the generator depends on
type LLMPort interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}
