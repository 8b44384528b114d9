// Package service resolves tracker name ambiguity: local knowledge first, then the classifier
package service

import (
	"context"

	"trackergen/internal/adapters/llm"
	"trackergen/internal/core/ambiguity"
	"trackergen/internal/core/sanitize"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
	"trackergen/internal/services/disambiguate/domain"
	gdom "trackergen/internal/services/gather/domain"
	gsvc "trackergen/internal/services/gather/service"
	sdom "trackergen/internal/services/seclog/domain"
)

const (
	maxAttempts = 2
	maxTokens   = 800
	temperature = 0.2
)

// Options wires optional collaborators
type Options struct {
	// Resolver defaults to the embedded knowledge base
	Resolver *ambiguity.Resolver
	// Gatherer may be nil when only supplied context is used
	Gatherer gdom.GathererPort
	// Events defaults to a discard emitter
	Events sdom.EmitterPort
}

// Svc implements domain.CheckerPort
type Svc struct {
	local  *ambiguity.Resolver
	gather gdom.GathererPort
	llm    domain.LLMPort
	events sdom.EmitterPort
}

var _ domain.CheckerPort = (*Svc)(nil)

// New constructs the service
func New(model domain.LLMPort, o Options) *Svc {
	if o.Resolver == nil {
		o.Resolver = ambiguity.Default()
	}
	if o.Events == nil {
		o.Events = sdom.Discard{}
	}
	return &Svc{local: o.Resolver, gather: o.Gatherer, llm: model, events: o.Events}
}

// verdict is one validated classifier answer
type verdict struct {
	ambiguous bool
	reason    string
	items     []ambiguity.Interpretation
}

// Check implements domain.CheckerPort
func (s *Svc) Check(ctx context.Context, in domain.CheckInput) (ambiguity.Result, error) {
	if res := s.local.Resolve(in.Name); res.IsAmbiguous {
		metrics.Resolution(domain.SourceLocal)
		return res, nil
	}

	name := sanitize.ForPrompt(in.Name, sanitize.DefaultOptions()).Value
	if name == "" {
		return ambiguity.NotAmbiguous("empty tracker name"), nil
	}
	if s.llm == nil {
		return s.failOpen(ctx, in.Name, domain.ReasonClassifierUnavailable, perr.Configurationf("no classifier configured"))
	}

	c := in.Context
	if s.gather != nil {
		c = s.gather.Gather(ctx, name, c)
	}
	c = clean(c)

	msgs := []llm.Message{{Role: llm.RoleUser, Content: userPrompt(name, c)}}
	var (
		best verdict
		have bool
	)
	// at most one re-ask, and only when the answer is ambiguous but thin
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := s.classify(ctx, msgs)
		if err != nil {
			if ctx.Err() != nil {
				return ambiguity.Result{}, ctx.Err()
			}
			if have {
				logger.C(ctx).Warn().Err(err).Msg("diversity retry failed, keeping first answer")
				break
			}
			reason := domain.ReasonClassifierUnavailable
			if perr.IsCode(err, perr.ErrorCodeUpstreamOutput) {
				reason = domain.ReasonClassifierUnparseable
			}
			return s.failOpen(ctx, in.Name, reason, err)
		}

		if have {
			v.items = ambiguity.Clean(append(best.items, v.items...))
			v.ambiguous = true
			if v.reason == "" {
				v.reason = best.reason
			}
		}
		best, have = v, true

		n := len(best.items)
		if !best.ambiguous || n == 0 || n >= ambiguity.MinInterpretations {
			break
		}
		msgs = append(msgs,
			llm.Message{Role: llm.RoleAssistant, Content: previousAnswer(best.items)},
			llm.Message{Role: llm.RoleUser, Content: diversityPrompt},
		)
	}

	if !best.ambiguous {
		metrics.Resolution(domain.SourceLLM)
		reason := best.reason
		if reason == "" {
			reason = "clear meaning"
		}
		return ambiguity.NotAmbiguous(reason), nil
	}

	items, filled := fillFallbacks(name, best.items)
	source := domain.SourceLLM
	if filled {
		source = domain.SourceFallback
	}
	metrics.Resolution(source)
	reason := best.reason
	if reason == "" {
		reason = "'" + name + "' can mean several different things"
	}
	return ambiguity.Result{IsAmbiguous: true, Reason: reason, Interpretations: items}, nil
}

func (s *Svc) classify(ctx context.Context, msgs []llm.Message) (verdict, error) {
	t := temperature
	text, err := s.llm.Complete(ctx, llm.Request{
		Op:          "classify",
		System:      systemPrompt,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &t,
	})
	if err != nil {
		return verdict{}, err
	}
	return parseVerdict(text)
}

// parseVerdict validates untrusted classifier output field by field
func parseVerdict(text string) (verdict, error) {
	obj, err := llm.DecodeObject(text)
	if err != nil {
		return verdict{}, err
	}
	amb, ok := llm.Bool(obj, "isAmbiguous")
	if !ok {
		return verdict{}, perr.UpstreamOutputf("classifier answer has no isAmbiguous flag")
	}
	v := verdict{ambiguous: amb, reason: sanitize.ExternalResponse(llm.String(obj, "reason"), 200)}
	if !amb {
		return v, nil
	}
	raw := llm.Objects(obj, "interpretations")
	items := make([]ambiguity.Interpretation, 0, len(raw))
	for _, o := range raw {
		items = append(items, ambiguity.Interpretation{
			Value:       llm.String(o, "value"),
			Label:       sanitize.ExternalResponse(llm.String(o, "label"), 60),
			Description: sanitize.ExternalResponse(llm.String(o, "description"), 200),
		})
	}
	v.items = ambiguity.Clean(items)
	return v, nil
}

func (s *Svc) failOpen(ctx context.Context, name, reason string, cause error) (ambiguity.Result, error) {
	metrics.Resolution(domain.SourceFailOpen)
	logger.C(ctx).Error().Err(cause).Str("reason", reason).Msg("ambiguity classifier failed, treating as unambiguous")
	s.events.Emit(ctx, sdom.Event{
		Type:     sdom.UpstreamFailure,
		Severity: sdom.Medium,
		Details: map[string]any{
			"op":     "classify",
			"reason": reason,
			"code":   perr.CodeOf(cause).String(),
			"name":   name,
		},
	})
	return ambiguity.NotAmbiguous(reason), nil
}

// clean re-sanitizes context text before it reaches a prompt
func clean(c gdom.Context) gdom.Context {
	list := func(in []string, max, n int) []string {
		out := make([]string, 0, min(len(in), n))
		for _, v := range in {
			if v = sanitize.ExternalResponse(v, max); v != "" {
				out = append(out, v)
			}
			if len(out) == n {
				break
			}
		}
		return out
	}
	return gdom.Context{
		Definition:     sanitize.ExternalResponse(c.Definition, gsvc.MaxDefinitionLen),
		AllDefinitions: list(c.AllDefinitions, gsvc.MaxDefinitionLen, gsvc.MaxDefinitions),
		WikiSummary:    sanitize.ExternalResponse(c.WikiSummary, gsvc.MaxSummaryLen),
		WikiCategories: list(c.WikiCategories, gsvc.MaxTermLen, gsvc.MaxCategories),
		RelatedTerms:   list(c.RelatedTerms, gsvc.MaxTermLen, gsvc.MaxTerms),
	}
}
