package http

import (
	"net/http"

	"trackergen/internal/platform/net/http/bind"
)

// JSONHandler adapts a pure JSON handler to a platform Handler
// Handlers may return a Response to control status and headers
func JSONHandler[T any](fn func(*http.Request, T) (any, error), opts ...bind.JSONOptions) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r, opts...)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return OK(out)
	})
}
