// Package router maps a parsed request to a response by its first path
// segment.
package router

import (
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/storage"
)

// Route keys, matched against the first path segment
const (
	RouteEcho      = "echo"
	RouteUserAgent = "user-agent"
	RouteFiles     = "files"
)

// HandlerFunc produces the response for a request. A non-nil error is for
// logging only; the returned response is always written to the client.
type HandlerFunc func(req *protocol.HttpRequest) (*protocol.HttpResponse, error)

// Router dispatches on the first path segment. It keeps no state between
// requests and is safe for concurrent use once routes are registered.
type Router struct {
	store  *storage.FileStore
	routes map[string]HandlerFunc
}

// New creates a router with the echo, user-agent and files routes
func New(store *storage.FileStore) *Router {
	rt := &Router{
		store:  store,
		routes: make(map[string]HandlerFunc),
	}
	rt.Handle(RouteEcho, rt.echo)
	rt.Handle(RouteUserAgent, rt.userAgent)
	rt.Handle(RouteFiles, rt.files)
	return rt
}

// Handle registers h for requests whose first path segment is segment
func (rt *Router) Handle(segment string, h HandlerFunc) {
	rt.routes[segment] = h
}

// Route returns the response for req. Only a raw path of "/" or "" is the
// root; other paths without segments, such as "//", are not found.
func (rt *Router) Route(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	if protocol.IsRoot(req.RawPath) {
		return protocol.NewResponse(protocol.StatusOK, "", nil, false), nil
	}

	if h, ok := rt.routes[req.Segment(0)]; ok {
		return h(req)
	}
	return notFound(), nil
}

func notFound() *protocol.HttpResponse {
	return protocol.NewResponse(protocol.StatusNotFound, "", nil, false)
}
