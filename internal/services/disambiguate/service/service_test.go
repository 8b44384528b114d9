package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"trackergen/internal/adapters/llm"
	"trackergen/internal/core/ambiguity"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/services/disambiguate/domain"
	gdom "trackergen/internal/services/gather/domain"
	sdom "trackergen/internal/services/seclog/domain"
)

type reply struct {
	text string
	err  error
}

type scriptedLLM struct {
	mu      sync.Mutex
	replies []reply
	reqs    []llm.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if len(s.replies) == 0 {
		return "", perr.Unavailablef("no scripted reply")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r.text, r.err
}

type events struct {
	mu  sync.Mutex
	got []sdom.Event
}

func (e *events) Emit(_ context.Context, ev sdom.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
}

type staticGatherer struct {
	add   gdom.Context
	calls int
}

func (g *staticGatherer) Gather(_ context.Context, _ string, supplied gdom.Context) gdom.Context {
	g.calls++
	if supplied.WikiSummary == "" {
		supplied.WikiSummary = g.add.WikiSummary
	}
	return supplied
}

func TestCheck_LocalHitSkipsNetwork(t *testing.T) {
	model := &scriptedLLM{}
	g := &staticGatherer{}
	s := New(model, Options{Gatherer: g})

	res, err := s.Check(context.Background(), domain.CheckInput{Name: "Hockey"})
	require.NoError(t, err)
	require.True(t, res.IsAmbiguous)
	labels := map[string]bool{}
	for _, it := range res.Interpretations {
		labels[it.Label] = true
	}
	require.True(t, labels["Ice Hockey"])
	require.True(t, labels["Field Hockey"])
	require.Empty(t, model.reqs)
	require.Zero(t, g.calls)
}

func TestCheck_TypoIsLocal(t *testing.T) {
	res, err := New(&scriptedLLM{}, Options{}).Check(context.Background(), domain.CheckInput{Name: "Flyinh"})
	require.NoError(t, err)
	require.True(t, res.IsAmbiguous)
	require.Equal(t, "flying", res.SuggestedCorrection)
}

func TestCheck_UnambiguousFromClassifier(t *testing.T) {
	model := &scriptedLLM{replies: []reply{{text: "```json\n{\"isAmbiguous\": false, \"reason\": \"a specific condition\", \"interpretations\": [{\"value\":\"x\",\"label\":\"X\",\"description\":\"d\"}]}\n```"}}}
	g := &staticGatherer{add: gdom.Context{WikiSummary: "Migraine is a primary headache disorder."}}
	s := New(model, Options{Gatherer: g})

	res, err := s.Check(context.Background(), domain.CheckInput{Name: "Migraine"})
	require.NoError(t, err)
	require.False(t, res.IsAmbiguous)
	require.Empty(t, res.Interpretations)
	require.Equal(t, "a specific condition", res.Reason)

	require.Len(t, model.reqs, 1)
	prompt := model.reqs[0].Messages[0].Content
	require.Contains(t, prompt, "<name>Migraine</name>")
	require.Contains(t, prompt, "Migraine is a primary headache disorder.")
	require.Equal(t, "classify", model.reqs[0].Op)
}

func TestCheck_AmbiguousFromClassifier(t *testing.T) {
	body := `{"isAmbiguous": true, "reason": "several sports", "interpretations": [
		{"value": "Track Running", "label": "Track running", "description": "Laps on a track"},
		{"value": "trail-running", "label": "Trail running", "description": "Off road runs"},
		{"value": "treadmill", "label": "Treadmill", "description": "Indoor runs"},
		{"value": "", "label": "Broken", "description": "dropped"},
		{"value": "runny-nose", "label": "Runny nose", "description": "A symptom"}
	]}`
	model := &scriptedLLM{replies: []reply{{text: body}}}
	res, err := New(model, Options{}).Check(context.Background(), domain.CheckInput{Name: "Jogging things"})
	require.NoError(t, err)
	require.True(t, res.IsAmbiguous)
	require.Len(t, res.Interpretations, 4)
	require.Equal(t, "track-running", res.Interpretations[0].Value)
	require.Len(t, model.reqs, 1, "enough interpretations, no retry")
}

func TestCheck_ThinAnswerRetriesOnceThenMerges(t *testing.T) {
	first := `{"isAmbiguous": true, "interpretations": [
		{"value": "a", "label": "A", "description": "first"},
		{"value": "b", "label": "B", "description": "second"}]}`
	second := `{"isAmbiguous": true, "interpretations": [
		{"value": "b", "label": "B", "description": "dup"},
		{"value": "c", "label": "C", "description": "third"},
		{"value": "d", "label": "D", "description": "fourth"}]}`
	model := &scriptedLLM{replies: []reply{{text: first}, {text: second}}}
	res, err := New(model, Options{}).Check(context.Background(), domain.CheckInput{Name: "Widget"})
	require.NoError(t, err)
	require.True(t, res.IsAmbiguous)
	require.Len(t, model.reqs, 2)
	retry := model.reqs[1].Messages
	require.Len(t, retry, 3)
	require.Equal(t, llm.RoleAssistant, retry[1].Role)
	require.Contains(t, retry[2].Content, "at least 4")

	var values []string
	for _, it := range res.Interpretations {
		values = append(values, it.Value)
	}
	require.Equal(t, []string{"a", "b", "c", "d"}, values)
}

func TestCheck_StillThinUsesFallbacks(t *testing.T) {
	thin := `{"isAmbiguous": true, "interpretations": [{"value": "gadget-device", "label": "Gadget", "description": "a thing"}]}`
	model := &scriptedLLM{replies: []reply{{text: thin}, {text: thin}}}
	res, err := New(model, Options{}).Check(context.Background(), domain.CheckInput{Name: "Gadget"})
	require.NoError(t, err)
	require.True(t, res.IsAmbiguous)
	require.Len(t, res.Interpretations, ambiguity.MinInterpretations)
	require.Len(t, model.reqs, maxAttempts, "retry is bounded")
	require.Equal(t, "gadget-symptom-condition", res.Interpretations[1].Value)
	for _, it := range res.Interpretations {
		require.NotEmpty(t, it.Label)
		require.NotEmpty(t, it.Description)
	}
}

func TestCheck_RetryFailureKeepsFirstAnswer(t *testing.T) {
	thin := `{"isAmbiguous": true, "interpretations": [{"value": "one", "label": "One", "description": "d"}]}`
	model := &scriptedLLM{replies: []reply{{text: thin}, {err: perr.Unavailablef("overloaded")}}}
	res, err := New(model, Options{}).Check(context.Background(), domain.CheckInput{Name: "Thing"})
	require.NoError(t, err)
	require.True(t, res.IsAmbiguous)
	require.Equal(t, "one", res.Interpretations[0].Value)
	require.Len(t, res.Interpretations, 4)
}

func TestCheck_FailOpen(t *testing.T) {
	cases := []struct {
		name   string
		reply  reply
		reason string
	}{
		{"transport", reply{err: perr.Unavailablef("dial tcp: refused")}, domain.ReasonClassifierUnavailable},
		{"not json", reply{text: "I think it is ambiguous."}, domain.ReasonClassifierUnparseable},
		{"no flag", reply{text: `{"interpretations": []}`}, domain.ReasonClassifierUnparseable},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev := &events{}
			model := &scriptedLLM{replies: []reply{c.reply}}
			res, err := New(model, Options{Events: ev}).Check(context.Background(), domain.CheckInput{Name: "Migraine"})
			require.NoError(t, err)
			require.False(t, res.IsAmbiguous)
			require.Equal(t, c.reason, res.Reason)
			require.Empty(t, res.Interpretations)
			require.Len(t, ev.got, 1)
			require.Equal(t, sdom.UpstreamFailure, ev.got[0].Type)
		})
	}
}

func TestCheck_NoClassifierFailsOpen(t *testing.T) {
	res, err := New(nil, Options{}).Check(context.Background(), domain.CheckInput{Name: "Migraine"})
	require.NoError(t, err)
	require.Equal(t, domain.ReasonClassifierUnavailable, res.Reason)
}

func TestCheck_CancelledContextIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := &scriptedLLM{replies: []reply{{err: perr.Wrap(context.Canceled, perr.ErrorCodeUnavailable, "llm")}}}
	_, err := New(model, Options{}).Check(ctx, domain.CheckInput{Name: "Migraine"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheck_PromptCarriesOnlySanitizedText(t *testing.T) {
	model := &scriptedLLM{replies: []reply{{text: `{"isAmbiguous": false}`}}}
	in := domain.CheckInput{
		Name:    `Mi"gr{aine}`,
		Context: gdom.Context{AllDefinitions: []string{"<script>alert(1)</script>"}},
	}
	_, err := New(model, Options{}).Check(context.Background(), in)
	require.NoError(t, err)
	prompt := model.reqs[0].Messages[0].Content
	body := strings.TrimSuffix(strings.TrimPrefix(prompt, "<name>"), "</context>")
	require.NotContains(t, body, "{")
	require.NotContains(t, body, `"`)
	require.Contains(t, prompt, "script alert(1) /script")
}

func TestFillFallbacks(t *testing.T) {
	have := []ambiguity.Interpretation{{Value: "x-habit-behavior", Label: "x", Description: "d"}}
	out, used := fillFallbacks("X", have)
	require.True(t, used)
	require.Len(t, out, 4)
	seen := map[string]bool{}
	for _, it := range out {
		require.False(t, seen[it.Value], "duplicate %s", it.Value)
		seen[it.Value] = true
	}

	full := make([]ambiguity.Interpretation, 4)
	got, used := fillFallbacks("X", full)
	require.False(t, used)
	require.Len(t, got, 4)
}
