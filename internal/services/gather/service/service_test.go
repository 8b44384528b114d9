package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trackergen/internal/services/gather/domain"
)

type fakeSource struct {
	off        bool
	defs       []string
	summary    string
	cats       []string
	related    []string
	failDefs   bool
	defsCalls  atomic.Int32
	otherCalls atomic.Int32
	gate       chan struct{}
	slow       time.Duration
}

func (f *fakeSource) Enabled() bool { return !f.off }

func (f *fakeSource) Definitions(ctx context.Context, _ string) ([]string, error) {
	f.defsCalls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failDefs {
		return nil, errors.New("dictionary 503")
	}
	return f.defs, nil
}

func (f *fakeSource) Summary(ctx context.Context, _ string) (string, error) {
	f.otherCalls.Add(1)
	if f.slow > 0 {
		select {
		case <-time.After(f.slow):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.summary, nil
}

func (f *fakeSource) Categories(context.Context, string) ([]string, error) {
	f.otherCalls.Add(1)
	return f.cats, nil
}

func (f *fakeSource) Related(context.Context, string) ([]string, error) {
	f.otherCalls.Add(1)
	return f.related, nil
}

func full() *fakeSource {
	return &fakeSource{
		defs:    []string{"(verb) to move through the air", "(noun) the action of flying"},
		summary: "Flight is the process by which an object moves through an atmosphere.",
		cats:    []string{"Aviation", "Aviation", "Flight"},
		related: []string{"aviation", "air travel", "gliding"},
	}
}

func TestGather_FillsMissing(t *testing.T) {
	s := New(full(), Options{})
	got := s.Gather(context.Background(), "Flying", domain.Context{})

	require.Equal(t, "(verb) to move through the air", got.Definition)
	require.Len(t, got.AllDefinitions, 2)
	require.Contains(t, got.WikiSummary, "Flight is the process")
	require.Equal(t, []string{"Aviation", "Flight"}, got.WikiCategories, "duplicates dropped")
	require.Equal(t, []string{"aviation", "air travel", "gliding"}, got.RelatedTerms)
}

func TestGather_SuppliedWins(t *testing.T) {
	src := full()
	s := New(src, Options{})
	supplied := domain.Context{
		Definition:     "my own definition",
		WikiSummary:    "supplied summary",
		WikiCategories: []string{"Mine"},
		RelatedTerms:   []string{"mine"},
	}
	got := s.Gather(context.Background(), "Flying", supplied)
	require.Equal(t, supplied, got)
	require.Zero(t, src.defsCalls.Load())
	require.Zero(t, src.otherCalls.Load())
}

func TestGather_DisabledOrNil(t *testing.T) {
	src := full()
	src.off = true
	in := domain.Context{Definition: "x"}
	require.Equal(t, in, New(src, Options{}).Gather(context.Background(), "Flying", in))
	require.Zero(t, src.defsCalls.Load())

	require.Equal(t, in, New(nil, Options{}).Gather(context.Background(), "Flying", in))
	require.True(t, New(full(), Options{}).Gather(context.Background(), "   ", domain.Context{}).Empty())
}

func TestGather_FailuresAreNotFatal(t *testing.T) {
	src := full()
	src.failDefs = true
	got := New(src, Options{}).Gather(context.Background(), "Flying", domain.Context{})
	require.False(t, got.HasDefinition())
	require.NotEmpty(t, got.WikiSummary, "other sources still contribute")
}

func TestGather_BudgetBoundsSlowSources(t *testing.T) {
	src := full()
	src.slow = time.Second
	start := time.Now()
	got := New(src, Options{Budget: 30 * time.Millisecond}).Gather(context.Background(), "Flying", domain.Context{})
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.Empty(t, got.WikiSummary)
	require.NotEmpty(t, got.AllDefinitions)
}

func TestGather_SanitizesAndCaps(t *testing.T) {
	src := &fakeSource{
		defs:    []string{`<b>"quoted"</b> {json}`, "", "d2", "d3", "d4", "d5", "d6", "d7"},
		summary: strings.Repeat("word ", 200),
		related: []string{strings.Repeat("x", 100)},
	}
	got := New(src, Options{}).Gather(context.Background(), "term", domain.Context{})
	require.Len(t, got.AllDefinitions, MaxDefinitions)
	require.Equal(t, "b quoted /b json", got.Definition)
	require.LessOrEqual(t, len([]rune(got.WikiSummary)), MaxSummaryLen)
	require.Len(t, []rune(got.RelatedTerms[0]), MaxTermLen)
}

func TestGather_CollapsesConcurrentLookups(t *testing.T) {
	src := full()
	src.gate = make(chan struct{})
	s := New(src, Options{Budget: 2 * time.Second})

	var wg sync.WaitGroup
	results := make([]domain.Context, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.Gather(context.Background(), "Flying", domain.Context{})
		}()
	}
	require.Eventually(t, func() bool { return src.defsCalls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	require.EqualValues(t, 1, src.defsCalls.Load())
	for _, r := range results {
		require.Len(t, r.AllDefinitions, 2)
	}
	results[0].AllDefinitions[0] = "mutated"
	require.NotEqual(t, "mutated", results[1].AllDefinitions[0], "callers get their own slices")
}

func TestGather_SharedLookupSurvivesFirstCallerCancel(t *testing.T) {
	src := full()
	src.gate = make(chan struct{})
	s := New(src, Options{Budget: 2 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan domain.Context, 1)
	go func() { first <- s.Gather(ctx, "Flying", domain.Context{}) }()
	require.Eventually(t, func() bool { return src.defsCalls.Load() >= 1 }, time.Second, time.Millisecond)

	second := make(chan domain.Context, 1)
	go func() { second <- s.Gather(context.Background(), "Flying", domain.Context{}) }()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.Empty(t, (<-first).AllDefinitions)

	close(src.gate)
	got := <-second
	require.EqualValues(t, 1, src.defsCalls.Load())
	require.Len(t, got.AllDefinitions, 2)
}
