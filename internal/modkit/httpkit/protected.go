package httpkit

import (
	"trackergen/internal/platform/net/middleware"
)

// Protected groups routes under bearer auth
func Protected(r Router, p middleware.AuthPort, onReject middleware.AuthRejectFunc, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(Auth(p, onReject))
		fn(gr)
	})
}
