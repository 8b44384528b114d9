// Package identity verifies bearer tokens against the identity provider's user-info endpoint
package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"trackergen/internal/platform/config"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/logger"
)

const (
	userPath       = "/auth/v1/user"
	defaultTimeout = 5 * time.Second
)

// Options configures the Client
type Options struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
}

// OptionsFromEnv reads IDENTITY_URL and IDENTITY_SERVICE_KEY
func OptionsFromEnv(root config.Conf) Options {
	c := root.Prefix("IDENTITY_")
	u, _ := c.Lookup("URL")
	k, _ := c.Lookup("SERVICE_KEY")
	return Options{URL: u, ServiceKey: k, Timeout: c.MayDuration("TIMEOUT", defaultTimeout)}
}

// Client asks the provider who a token belongs to
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// New creates a Client
func New(o Options) *Client {
	o.URL = strings.TrimRight(strings.TrimSpace(o.URL), "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("identity"),
	}
}

type user struct {
	ID string `json:"id"`
}

// Verify returns the user id for token
// Any non-2xx answer is an invalid token; transport failures are unavailable
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	if c.opts.URL == "" || c.opts.ServiceKey == "" {
		return "", perr.Configurationf("identity provider not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", perr.Unauthorizedf("missing authorization header")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL+userPath, nil)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeConfiguration, "identity new request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.opts.ServiceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "identity request failed")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug().Err(cerr).Msg("identity close body failed")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug().Int("status", resp.StatusCode).Msg("identity rejected token")
		return "", perr.Unauthorizedf("invalid or expired token")
	}

	var u user
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&u); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnauthorized, "invalid or expired token")
	}
	if strings.TrimSpace(u.ID) == "" {
		return "", perr.Unauthorizedf("invalid or expired token")
	}
	return u.ID, nil
}
