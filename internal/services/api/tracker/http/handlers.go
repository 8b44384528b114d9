// Package http provides the tracker endpoints
package http

import (
	stdhttp "net/http"

	"trackergen/internal/core/ambiguity"
	"trackergen/internal/modkit/httpkit"
	"trackergen/internal/platform/logger"
	"trackergen/internal/services/api/tracker/domain"
	cdom "trackergen/internal/services/configgen/domain"
	ddom "trackergen/internal/services/disambiguate/domain"
	gdom "trackergen/internal/services/gather/domain"
	sdom "trackergen/internal/services/seclog/domain"
)

// Handlers serve the two tracker endpoints
type Handlers struct {
	Checker   ddom.CheckerPort
	Generator cdom.GeneratorPort
	Events    sdom.EmitterPort
}

// Guards are the per endpoint middleware chains, applied in order
type Guards struct {
	Check    []func(stdhttp.Handler) stdhttp.Handler
	Generate []func(stdhttp.Handler) stdhttp.Handler
}

// bodies may carry fields this version does not know about
var bodyOpts = httpkit.JSONOptions{MaxBytes: 64 << 10}

// Register mounts the tracker endpoints on r
func Register(r httpkit.Router, h *Handlers, g Guards) {
	if h.Events == nil {
		h.Events = sdom.Discard{}
	}
	httpkit.PostJSON[domain.CheckRequest](r.With(g.Check...), "/"+domain.EndpointCheck, h.check, bodyOpts)
	httpkit.PostJSON[domain.GenerateRequest](r.With(g.Generate...), "/"+domain.EndpointGenerate, h.generate, bodyOpts)
}

// check godoc
// @Summary Check whether a tracker name is ambiguous
// @Description Local knowledge base first, then the classifier. Internal failures answer 200 with isAmbiguous=false.
// @Tags Tracker
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.CheckRequest true "Tracker name and optional context"
// @Success 200 {object} ambiguity.Result "ok"
// @Failure 401 {object} net.ErrorBody "missing or invalid token"
// @Failure 429 {object} ratelimit.LimitedBody "rate limit exceeded"
// @Router /check-ambiguity [post]
func (h *Handlers) check(r *stdhttp.Request, in domain.CheckRequest) (any, error) {
	var s scrubber
	input := ddom.CheckInput{
		Name: s.one("trackerName", in.TrackerName, maxNameLen),
		Context: gdom.Context{
			AllDefinitions: s.list("allDefinitions", in.AllDefinitions, maxDefinitionLen),
			WikiSummary:    s.one("wikiSummary", in.WikiSummary, maxSummaryLen),
			WikiCategories: s.list("wikiCategories", in.WikiCategories, maxTermLen),
			RelatedTerms:   s.list("relatedTerms", in.RelatedTerms, maxTermLen),
		},
	}
	if len(input.Context.AllDefinitions) > 0 {
		input.Context.Definition = input.Context.AllDefinitions[0]
	}
	h.reportInjection(r, domain.EndpointCheck, s.hits)

	if input.Name == "" {
		return ambiguity.NotAmbiguous("empty tracker name"), nil
	}
	res, err := h.Checker.Check(r.Context(), input)
	if err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("ambiguity check aborted")
		return ambiguity.NotAmbiguous(ddom.ReasonClassifierUnavailable), nil
	}
	return res, nil
}

// generate godoc
// @Summary Generate a tracker configuration
// @Description Answers with a ready config, or with one clarifying question when more detail is needed.
// @Tags Tracker
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body domain.GenerateRequest true "Tracker name, context and conversation so far"
// @Success 200 {object} domain.ConfigResponse "ready"
// @Success 200 {object} domain.ClarifyResponse "needs clarification"
// @Failure 400 {object} net.ErrorBody "invalid body"
// @Failure 401 {object} net.ErrorBody "missing or invalid token"
// @Failure 429 {object} ratelimit.LimitedBody "rate limit exceeded"
// @Failure 500 {object} net.ErrorBody "generation failed"
// @Router /generate-tracker-config [post]
func (h *Handlers) generate(r *stdhttp.Request, in domain.GenerateRequest) (any, error) {
	var s scrubber
	input := cdom.GenerateInput{
		Name: s.one("trackerName", in.TrackerName, maxNameLen),
		Context: gdom.Context{
			Definition:     s.one("definition", in.Definition, maxDefinitionLen),
			AllDefinitions: s.list("allDefinitions", in.AllDefinitions, maxDefinitionLen),
			WikiSummary:    s.one("wikiSummary", in.WikiSummary, maxSummaryLen),
			WikiCategories: s.list("wikiCategories", in.WikiCategories, maxTermLen),
			RelatedTerms:   s.list("relatedTerms", in.RelatedTerms, maxTermLen),
		},
		UserDescription: s.one("userDescription", in.UserDescription, maxDescriptionLen),
	}
	if sel := in.SelectedInterpretation; sel != nil {
		input.Selected = cdom.Selection{
			Value:       s.one("selectedInterpretation", sel.Value, maxNameLen),
			Label:       s.one("selectedInterpretation", sel.Label, maxNameLen),
			Description: s.one("selectedInterpretation", sel.Description, maxDescriptionLen),
		}
	}
	for _, e := range in.ConversationHistory {
		input.History = append(input.History, cdom.HistoryEntry{
			Question: s.one("conversationHistory", e.Question, maxHistoryLen),
			Answer:   s.one("conversationHistory", e.Answer, maxHistoryLen),
		})
	}
	h.reportInjection(r, domain.EndpointGenerate, s.hits)

	out, err := h.Generator.Generate(r.Context(), input)
	if err != nil {
		return nil, err
	}
	switch o := out.(type) {
	case cdom.Ready:
		return domain.ConfigResponse{Config: o.Config}, nil
	case cdom.Clarify:
		return domain.ClarifyResponse{
			NeedsClarification: true,
			Confidence:         o.Confidence,
			FinalQuestion:      o.FinalQuestion,
			Questions:          o.Questions,
			Reason:             o.Reason,
		}, nil
	}
	return nil, errUnknownOutcome
}

func (h *Handlers) reportInjection(r *stdhttp.Request, endpoint string, fields []string) {
	if len(fields) == 0 {
		return
	}
	logger.C(r.Context()).Warn().Strs("fields", fields).Str("endpoint", endpoint).Msg("prompt injection pattern filtered")
	h.Events.Emit(r.Context(), sdom.FromRequest(r, sdom.InjectionDetected, sdom.Medium, map[string]any{
		"fields": dedupe(fields),
	}))
}

func dedupe(in []string) []string {
	out := in[:0:0]
	seen := map[string]struct{}{}
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
