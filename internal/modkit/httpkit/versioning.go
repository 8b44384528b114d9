package httpkit

import (
	"net/http"
	"strings"
)

// MountAPI mounts a subrouter under /api/{version}, applies any per-scope middleware,
// then invokes mount to register routes on that scoped router
func MountAPI(r Router, version string, mw []func(http.Handler) http.Handler, mount func(Router)) {
	ver := strings.TrimPrefix(version, "/")
	prefix := "/api/" + ver
	r.Route(prefix, func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}

// MountAPIV1 is a convenience for MountAPI with version v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}

// MountRootAndV1 registers the same routes at the root and under /api/v1
func MountRootAndV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Group(func(root Router) {
		if len(mw) > 0 {
			root.Use(mw...)
		}
		mount(root)
	})
	MountAPIV1(r, mw, mount)
}
