// Package ambiguity holds the curated knowledge base of tracker names that
// mean several things, and the typo tolerant lookup over it.
// A hit here is authoritative: callers must not ask a classifier about it
package ambiguity

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"trackergen/internal/core/normalize"
)

//go:embed kb.yaml
var embedded []byte

const (
	// MinInterpretations is the floor for an ambiguous result
	MinInterpretations = 4
	// MaxInterpretations is the cap for an ambiguous result
	MaxInterpretations = 8
	// MaxTypoDistance is the largest edit distance accepted as a typo
	MaxTypoDistance = 2
	// shortKeyRunes marks keys short enough that two edits reach everyday words
	shortKeyRunes = 5
)

// Reason values for results that did not come from the knowledge base
const (
	ReasonNotLocal = "not in local knowledge base"
)

// Interpretation is one meaning of an ambiguous name
type Interpretation struct {
	Value       string `json:"value" yaml:"value"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
}

// Result is the answer to "does this name need disambiguation"
type Result struct {
	IsAmbiguous         bool             `json:"isAmbiguous"`
	Reason              string           `json:"reason"`
	Interpretations     []Interpretation `json:"interpretations"`
	SuggestedCorrection string           `json:"suggestedCorrection,omitempty"`
}

// MarshalJSON never emits null for interpretations
func (r Result) MarshalJSON() ([]byte, error) {
	type wire Result
	w := wire(r)
	if w.Interpretations == nil {
		w.Interpretations = []Interpretation{}
	}
	return json.Marshal(w)
}

// NotAmbiguous returns a result with no interpretations
func NotAmbiguous(reason string) Result {
	return Result{Reason: reason, Interpretations: []Interpretation{}}
}

// Clean keeps interpretations whose fields are all non-empty after trim,
// slugifies values, drops repeated slugs and caps at MaxInterpretations
func Clean(in []Interpretation) []Interpretation {
	out := make([]Interpretation, 0, min(len(in), MaxInterpretations))
	seen := make(map[string]struct{}, len(in))
	for _, it := range in {
		label := strings.TrimSpace(it.Label)
		desc := strings.TrimSpace(it.Description)
		slug := normalize.Slug(it.Value)
		if slug == "" || label == "" || desc == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, Interpretation{Value: slug, Label: label, Description: desc})
		if len(out) == MaxInterpretations {
			break
		}
	}
	return out
}

// Resolver answers lookups against a fixed set of terms; safe for concurrent use
type Resolver struct {
	terms map[string][]Interpretation
	keys  []string // sorted, gives typo ties a stable winner
}

type kbFile struct {
	Version int                         `yaml:"version"`
	Terms   map[string][]Interpretation `yaml:"terms"`
}

// New validates terms and builds a resolver
// keys are normalized; each term needs MinInterpretations..MaxInterpretations
// entries with slug values and no repeats
func New(terms map[string][]Interpretation) (*Resolver, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("ambiguity: no terms")
	}
	r := &Resolver{terms: make(map[string][]Interpretation, len(terms))}
	for raw, list := range terms {
		key := normalize.Key(raw)
		if key == "" {
			return nil, fmt.Errorf("ambiguity: empty key %q", raw)
		}
		if _, dup := r.terms[key]; dup {
			return nil, fmt.Errorf("ambiguity: %q duplicates an existing key", raw)
		}
		if n := len(list); n < MinInterpretations || n > MaxInterpretations {
			return nil, fmt.Errorf("ambiguity: %q has %d interpretations, want %d..%d", key, n, MinInterpretations, MaxInterpretations)
		}
		seen := make(map[string]struct{}, len(list))
		for i, it := range list {
			if it.Value == "" || normalize.Slug(it.Value) != it.Value {
				return nil, fmt.Errorf("ambiguity: %q[%d] value %q is not a slug", key, i, it.Value)
			}
			if strings.TrimSpace(it.Label) == "" || strings.TrimSpace(it.Description) == "" {
				return nil, fmt.Errorf("ambiguity: %q[%d] needs a label and description", key, i)
			}
			if _, dup := seen[it.Value]; dup {
				return nil, fmt.Errorf("ambiguity: %q repeats value %q", key, it.Value)
			}
			seen[it.Value] = struct{}{}
		}
		r.terms[key] = append([]Interpretation(nil), list...)
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)
	return r, nil
}

// Parse decodes a YAML knowledge base document
func Parse(doc []byte) (*Resolver, error) {
	var f kbFile
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return nil, fmt.Errorf("ambiguity: decode: %w", err)
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("ambiguity: unsupported version %d", f.Version)
	}
	return New(f.Terms)
}

// Load parses the embedded knowledge base
func Load() (*Resolver, error) { return Parse(embedded) }

var defaultResolver = sync.OnceValue(func() *Resolver {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return r
})

// Default returns the resolver over the embedded knowledge base
func Default() *Resolver { return defaultResolver() }

// Resolve looks name up in the embedded knowledge base
func Resolve(name string) Result { return Default().Resolve(name) }

// Terms lists the known keys in sorted order
func (r *Resolver) Terms() []string { return append([]string(nil), r.keys...) }

// Resolve tries an exact key, then the closest key within MaxTypoDistance
func (r *Resolver) Resolve(name string) Result {
	key := normalize.Key(name)
	if key == "" {
		return NotAmbiguous(ReasonNotLocal)
	}
	if list, ok := r.terms[key]; ok {
		return Result{
			IsAmbiguous:     true,
			Reason:          fmt.Sprintf("'%s' can mean several different things", key),
			Interpretations: append([]Interpretation(nil), list...),
		}
	}
	if match, ok := r.closest(key); ok {
		return Result{
			IsAmbiguous:         true,
			Reason:              fmt.Sprintf("did you mean '%s'?", match),
			Interpretations:     append([]Interpretation(nil), r.terms[match]...),
			SuggestedCorrection: match,
		}
	}
	return NotAmbiguous(ReasonNotLocal)
}

func (r *Resolver) closest(key string) (string, bool) {
	n := utf8.RuneCountInString(key)
	best, bestDist := "", MaxTypoDistance+1
	for _, k := range r.keys {
		allowed := typoBudget(k)
		if abs(utf8.RuneCountInString(k)-n) > allowed {
			continue
		}
		if d := Levenshtein(key, k); d <= allowed && d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, best != ""
}

// typoBudget is the edit distance a key tolerates; "cold" must not swallow "mood"
func typoBudget(key string) int {
	if utf8.RuneCountInString(key) < shortKeyRunes {
		return 1
	}
	return MaxTypoDistance
}

// Levenshtein returns the rune edit distance between a and b
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
