// Package service generates tracker configs, asking one clarifying question at a time
// when the model is unsure or its answer is generic
package service

import (
	"context"

	"trackergen/internal/adapters/llm"
	"trackergen/internal/core/sanitize"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
	"trackergen/internal/services/configgen/domain"
	gdom "trackergen/internal/services/gather/domain"
	sdom "trackergen/internal/services/seclog/domain"
)

const (
	// DefaultMaxClarifications bounds how many questions a session should need
	DefaultMaxClarifications = 3

	baseFloor      = 0.4
	floorPerAnswer = 0.15
	maxFloorRaise  = 0.35
	maxHistory     = 10
	maxAnswerLen   = 300
	maxQuestionLen = 300
	maxUserTextLen = 500
	genTemperature = 0.4
)

// ConfidenceFloor is the minimum confidence accepted after answered questions
func ConfidenceFloor(answered int) float64 {
	return baseFloor + min(floorPerAnswer*float64(answered), maxFloorRaise)
}

// Options wires optional collaborators
type Options struct {
	MaxClarifications int
	Gatherer          gdom.GathererPort
	Events            sdom.EmitterPort
}

// Svc implements domain.GeneratorPort
type Svc struct {
	llm      domain.LLMPort
	gather   gdom.GathererPort
	events   sdom.EmitterPort
	maxClari int
}

var _ domain.GeneratorPort = (*Svc)(nil)

// New constructs the service
func New(model domain.LLMPort, o Options) *Svc {
	if o.MaxClarifications <= 0 {
		o.MaxClarifications = DefaultMaxClarifications
	}
	if o.Events == nil {
		o.Events = sdom.Discard{}
	}
	return &Svc{llm: model, gather: o.Gatherer, events: o.Events, maxClari: o.MaxClarifications}
}

// Generate implements domain.GeneratorPort
// Transport failures return ErrorCodeUnavailable, unusable model output ErrorCodeUpstreamOutput
func (s *Svc) Generate(ctx context.Context, in domain.GenerateInput) (domain.Outcome, error) {
	in.Name = sanitize.ForPrompt(in.Name, sanitize.DefaultOptions()).Value
	if in.Name == "" {
		return nil, perr.WithField(perr.New(perr.ErrorCodeValidation, "trackerName is required"), "trackerName")
	}
	in.UserDescription = sanitize.ForPrompt(in.UserDescription, sanitize.Options{MaxLength: maxUserTextLen, CheckInjection: true}).Value
	in.Selected = domain.Selection{
		Value:       sanitize.ForPrompt(in.Selected.Value, sanitize.DefaultOptions()).Value,
		Label:       sanitize.ForPrompt(in.Selected.Label, sanitize.DefaultOptions()).Value,
		Description: sanitize.ForPrompt(in.Selected.Description, sanitize.Options{MaxLength: maxUserTextLen, CheckInjection: true}).Value,
	}
	if in.Selected.Label == "" {
		in.Selected.Label = in.Selected.Value
	}
	history := answered(in.History)
	n := len(history)
	floor := ConfidenceFloor(n)
	final := n >= s.maxClari-1

	c := in.Context
	if s.gather != nil {
		c = s.gather.Gather(ctx, in.Name, c)
	}

	if !c.HasDefinition() && c.WikiSummary == "" && in.UserDescription == "" && in.Selected.Empty() && n == 0 {
		metrics.Generation("clarify_no_context")
		return domain.Clarify{
			Confidence:    0,
			FinalQuestion: final,
			Questions:     []string{noContextQuestion(in.Name)},
			Reason:        domain.ReasonNoContext,
		}, nil
	}

	if s.llm == nil {
		metrics.Generation("error")
		return nil, perr.Configurationf("no generator configured")
	}

	t := genTemperature
	text, err := s.llm.Complete(ctx, llm.Request{
		Op:          "generate",
		System:      systemPrompt(floor, final),
		Messages:    conversation(in, c, history),
		Temperature: &t,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.Generation("error")
		s.upstreamEvent(ctx, in.Name, err)
		if perr.CodeOf(err) == perr.ErrorCodeUnknown {
			err = perr.Wrap(err, perr.ErrorCodeUnavailable, "generate")
		}
		return nil, err
	}

	ans, err := parseAnswer(text)
	if err != nil {
		metrics.Generation("error")
		s.upstreamEvent(ctx, in.Name, err)
		return nil, err
	}

	if ans.clarify != nil {
		out := *ans.clarify
		out.FinalQuestion = out.FinalQuestion || final
		metrics.Generation("clarify_model")
		return out, nil
	}

	cfg := *ans.cfg
	if ans.confidence < floor {
		logger.C(ctx).Info().
			Float64("confidence", ans.confidence).
			Float64("floor", floor).
			Msg("config below confidence floor, asking instead")
		metrics.Generation("clarify_low_confidence")
		return domain.Clarify{
			Confidence:    ans.confidence,
			FinalQuestion: final,
			Questions:     []string{lowConfidenceQuestion(in.Name)},
			Reason:        domain.ReasonLowConfidence,
		}, nil
	}
	if isGeneric(cfg) {
		logger.C(ctx).Info().
			Int("locations", len(cfg.Locations)).
			Int("triggers", len(cfg.Triggers)).
			Msg("generic config rejected, asking instead")
		metrics.Generation("clarify_generic")
		return domain.Clarify{
			Confidence:    ans.confidence,
			FinalQuestion: final,
			Questions:     genericQuestions(in.Name),
			Reason:        domain.ReasonGenericOutput,
		}, nil
	}

	metrics.Generation("ready")
	return domain.Ready{Config: cfg}, nil
}

// answered keeps entries with a non-empty answer after sanitizing both sides
func answered(in []domain.HistoryEntry) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, 0, min(len(in), maxHistory))
	for _, h := range in {
		a := sanitize.ForPrompt(h.Answer, sanitize.Options{MaxLength: maxAnswerLen, CheckInjection: true}).Value
		if a == "" {
			continue
		}
		q := sanitize.ForPrompt(h.Question, sanitize.Options{MaxLength: maxQuestionLen, CheckInjection: true}).Value
		if q == "" {
			q = "Tell me more."
		}
		out = append(out, domain.HistoryEntry{Question: q, Answer: a})
		if len(out) == maxHistory {
			break
		}
	}
	return out
}

func (s *Svc) upstreamEvent(ctx context.Context, name string, err error) {
	logger.C(ctx).Error().Err(err).Str("name", name).Msg("config generation failed")
	typ := sdom.UpstreamFailure
	if perr.IsCode(err, perr.ErrorCodeConfiguration) {
		typ = sdom.ConfigError
	}
	s.events.Emit(ctx, sdom.Event{
		Type:     typ,
		Severity: sdom.High,
		Details: map[string]any{
			"op":   "generate",
			"code": perr.CodeOf(err).String(),
			"name": name,
		},
	})
}
