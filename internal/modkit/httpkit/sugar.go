package httpkit

import (
	"net/http"

	phttp "trackergen/internal/platform/net/http"
)

// PostJSON mounts a pure JSON handler under POST
// opts default to strict parsing, see bind.DefaultJSONOptions
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error), opts ...JSONOptions) {
	phttp.PostJSON(r, path, h, opts...)
}

// Get registers a no-body handler
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}
