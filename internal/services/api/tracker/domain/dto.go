// Package domain holds the wire types of the tracker endpoints
package domain

import (
	cdom "trackergen/internal/services/configgen/domain"
)

// Endpoint names used for rate limit keys, metrics and security events
const (
	EndpointCheck    = "check-ambiguity"
	EndpointGenerate = "generate-tracker-config"
)

// CheckRequest is the body of POST /check-ambiguity
type CheckRequest struct {
	TrackerName    string   `json:"trackerName" validate:"notblank,max=500" example:"Flying"`
	AllDefinitions []string `json:"allDefinitions,omitempty" validate:"max=50"`
	WikiSummary    string   `json:"wikiSummary,omitempty" validate:"max=10000"`
	WikiCategories []string `json:"wikiCategories,omitempty" validate:"max=100"`
	RelatedTerms   []string `json:"relatedTerms,omitempty" validate:"max=100"`
}

// GenerateRequest is the body of POST /generate-tracker-config
type GenerateRequest struct {
	TrackerName            string              `json:"trackerName" validate:"notblank,max=500" example:"Migraine"`
	Definition             string              `json:"definition,omitempty" validate:"max=5000"`
	AllDefinitions         []string            `json:"allDefinitions,omitempty" validate:"max=50"`
	UserDescription        string              `json:"userDescription,omitempty" validate:"max=5000"`
	SelectedInterpretation *cdom.Selection     `json:"selectedInterpretation,omitempty"`
	WikiSummary            string              `json:"wikiSummary,omitempty" validate:"max=10000"`
	WikiCategories         []string            `json:"wikiCategories,omitempty" validate:"max=100"`
	RelatedTerms           []string            `json:"relatedTerms,omitempty" validate:"max=100"`
	ConversationHistory    []cdom.HistoryEntry `json:"conversationHistory,omitempty" validate:"max=20"`
}

// ConfigResponse is the ready answer of generate-tracker-config
type ConfigResponse struct {
	Config cdom.TrackerConfig `json:"config"`
}

// ClarifyResponse asks the caller for one more answer
type ClarifyResponse struct {
	NeedsClarification bool     `json:"needs_clarification" example:"true"`
	Confidence         float64  `json:"confidence" example:"0.45"`
	FinalQuestion      bool     `json:"final_question" example:"false"`
	Questions          []string `json:"questions"`
	Reason             string   `json:"reason" example:"low_confidence"`
}
