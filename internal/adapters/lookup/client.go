// Package lookup fetches dictionary, encyclopedia and related-term context for a tracker name
// Every call is best effort; callers treat errors as "no data"
package lookup

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trackergen/internal/platform/config"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
)

const (
	dictionaryDefault = "https://api.dictionaryapi.dev"
	wikiDefault       = "https://en.wikipedia.org"
	relatedDefault    = "https://api.datamuse.com"
	defaultTimeout    = 3 * time.Second
	defaultUA         = "trackergen-lookup"
	maxBody           = 512 << 10
)

// Source labels used in metrics and logs
const (
	SourceDictionary = "dictionary"
	SourceSummary    = "wiki_summary"
	SourceCategories = "wiki_categories"
	SourceRelated    = "related"
)

// Options configures the Client
type Options struct {
	Enabled       bool
	DictionaryURL string
	WikiURL       string
	RelatedURL    string
	UserAgent     string
	Timeout       time.Duration
}

// OptionsFromEnv reads LOOKUP_* keys
func OptionsFromEnv(root config.Conf) Options {
	c := root.Prefix("LOOKUP_")
	return Options{
		Enabled:       c.MayBool("ENABLED", true),
		DictionaryURL: c.MayString("DICTIONARY_URL", dictionaryDefault),
		WikiURL:       c.MayString("WIKI_URL", wikiDefault),
		RelatedURL:    c.MayString("RELATED_URL", relatedDefault),
		Timeout:       c.MayDuration("TIMEOUT", defaultTimeout),
	}
}

// Client talks to the three public sources
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// New creates a Client with defaults filled in
func New(o Options) *Client {
	fill := func(s, def string) string {
		s = strings.TrimRight(strings.TrimSpace(s), "/")
		if s == "" {
			return def
		}
		return s
	}
	o.DictionaryURL = fill(o.DictionaryURL, dictionaryDefault)
	o.WikiURL = fill(o.WikiURL, wikiDefault)
	o.RelatedURL = fill(o.RelatedURL, relatedDefault)
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("lookup"),
	}
}

// Enabled reports whether server side lookups should run
func (c *Client) Enabled() bool { return c.opts.Enabled }

// getJSON decodes a 2xx body into out; 404 reports found=false with no error
func (c *Client) getJSON(ctx context.Context, source, rawURL string, out any) (found bool, err error) {
	defer func() {
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "error"
		case !found:
			outcome = "miss"
		}
		metrics.Lookup(source, outcome)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeUnknown, "%s new request", source)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s request failed", source)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug().Err(cerr).Str("source", source).Msg("lookup close body failed")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, perr.Newf(perr.ErrorCodeUnavailable, "%s status %d", source, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return false, perr.Wrapf(err, perr.ErrorCodeUpstreamOutput, "%s decode", source)
	}
	return true, nil
}

func pathEscape(s string) string { return url.PathEscape(strings.TrimSpace(s)) }
