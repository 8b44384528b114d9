// Package domain defines the reference context gathered for a tracker name
package domain

import "context"

// Context is what the classifier and generator are told about a name
type Context struct {
	Definition     string   `json:"definition,omitempty"`
	AllDefinitions []string `json:"allDefinitions,omitempty"`
	WikiSummary    string   `json:"wikiSummary,omitempty"`
	WikiCategories []string `json:"wikiCategories,omitempty"`
	RelatedTerms   []string `json:"relatedTerms,omitempty"`
}

// Empty reports whether nothing is known
func (c Context) Empty() bool {
	return c.Definition == "" && len(c.AllDefinitions) == 0 && c.WikiSummary == "" &&
		len(c.WikiCategories) == 0 && len(c.RelatedTerms) == 0
}

// HasDefinition reports whether at least one definition is present
func (c Context) HasDefinition() bool { return c.Definition != "" || len(c.AllDefinitions) > 0 }

// Source is the set of reference lookups; every method may return empty results
type Source interface {
	Enabled() bool
	Definitions(ctx context.Context, word string) ([]string, error)
	Summary(ctx context.Context, title string) (string, error)
	Categories(ctx context.Context, title string) ([]string, error)
	Related(ctx context.Context, word string) ([]string, error)
}

// GathererPort fills the gaps in supplied context
type GathererPort interface {
	Gather(ctx context.Context, name string, supplied Context) Context
}
