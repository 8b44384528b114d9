// Package service fills missing reference context from lookup sources
// Lookups are best effort: a failing source leaves its fields empty
package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"trackergen/internal/core/normalize"
	"trackergen/internal/core/sanitize"
	"trackergen/internal/platform/logger"
	"trackergen/internal/services/gather/domain"
)

// Length and count limits applied to gathered text
const (
	MaxDefinitionLen = 300
	MaxSummaryLen    = 600
	MaxTermLen       = 60

	MaxDefinitions = 5
	MaxCategories  = 10
	MaxTerms       = 10
)

const defaultBudget = 4 * time.Second

// Options tune the gatherer
type Options struct {
	// Budget bounds all lookups for one name
	Budget time.Duration
}

// Svc gathers context; identical concurrent lookups share one upstream call
type Svc struct {
	src    domain.Source
	budget time.Duration
	flight singleflight.Group
}

var _ domain.GathererPort = (*Svc)(nil)

// New constructs the service; a nil source gathers nothing
func New(src domain.Source, o Options) *Svc {
	if o.Budget <= 0 {
		o.Budget = defaultBudget
	}
	return &Svc{src: src, budget: o.Budget}
}

// Gather returns supplied with its empty fields filled from the sources
// Supplied values always win
func (s *Svc) Gather(ctx context.Context, name string, supplied domain.Context) domain.Context {
	out := supplied
	if s.src == nil || !s.src.Enabled() || normalize.Key(name) == "" {
		return out
	}
	key := normalize.Key(name)

	ctx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	var (
		defs, cats, terms []string
		summary           string
		g                 errgroup.Group
	)
	if !supplied.HasDefinition() {
		g.Go(func() error {
			defs = s.strings(ctx, "definitions", key, func(ctx context.Context) ([]string, error) {
				return s.src.Definitions(ctx, name)
			})
			return nil
		})
	}
	if supplied.WikiSummary == "" {
		g.Go(func() error {
			v, _ := s.do(ctx, "summary", key, func(ctx context.Context) (any, error) {
				return s.src.Summary(ctx, name)
			})
			summary, _ = v.(string)
			return nil
		})
	}
	if len(supplied.WikiCategories) == 0 {
		g.Go(func() error {
			cats = s.strings(ctx, "categories", key, func(ctx context.Context) ([]string, error) {
				return s.src.Categories(ctx, name)
			})
			return nil
		})
	}
	if len(supplied.RelatedTerms) == 0 {
		g.Go(func() error {
			terms = s.strings(ctx, "related", key, func(ctx context.Context) ([]string, error) {
				return s.src.Related(ctx, name)
			})
			return nil
		})
	}
	_ = g.Wait()

	if defs = cleanList(defs, MaxDefinitionLen, MaxDefinitions); len(defs) > 0 {
		out.AllDefinitions = defs
		out.Definition = defs[0]
	}
	if summary = sanitize.ExternalResponse(summary, MaxSummaryLen); summary != "" {
		out.WikiSummary = summary
	}
	if cats = cleanList(cats, MaxTermLen, MaxCategories); len(cats) > 0 {
		out.WikiCategories = cats
	}
	if terms = cleanList(terms, MaxTermLen, MaxTerms); len(terms) > 0 {
		out.RelatedTerms = terms
	}
	return out
}

func (s *Svc) strings(ctx context.Context, source, key string, fn func(context.Context) ([]string, error)) []string {
	v, err := s.do(ctx, source, key, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return nil
	}
	list, _ := v.([]string)
	// results are shared between flight members
	return append([]string(nil), list...)
}

func (s *Svc) do(ctx context.Context, source, key string, fn func(context.Context) (any, error)) (any, error) {
	// the shared call outlives any one caller, only the budget bounds it
	ch := s.flight.DoChan(source+":"+key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.budget)
		defer cancel()
		return fn(fctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			logger.C(ctx).Debug().Err(res.Err).Str("source", source).Str("name", key).Msg("context lookup failed")
		}
		return res.Val, res.Err
	case <-ctx.Done():
		logger.C(ctx).Debug().Err(ctx.Err()).Str("source", source).Str("name", key).Msg("context lookup timed out")
		return nil, ctx.Err()
	}
}

// cleanList sanitizes, drops empties and duplicates, then caps
func cleanList(in []string, maxLen, maxItems int) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, min(len(in), maxItems))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = sanitize.ExternalResponse(v, maxLen)
		if v == "" {
			continue
		}
		k := normalize.Key(v)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
		if len(out) == maxItems {
			break
		}
	}
	return out
}
