package router

import (
	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
)

// echo returns the single segment after "echo". Further segments are
// dropped, so "/echo/a/b" answers "a".
func (rt *Router) echo(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	body := []byte(req.Segment(1))
	return protocol.NewResponse(protocol.StatusOK, protocol.ContentTypeText, body, protocol.NegotiateGzip(req)), nil
}

func (rt *Router) userAgent(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	ua, _ := req.Header(protocol.HeaderUserAgent)
	return protocol.NewResponse(protocol.StatusOK, protocol.ContentTypeText, []byte(ua), protocol.NegotiateGzip(req)), nil
}

func (rt *Router) files(req *protocol.HttpRequest) (*protocol.HttpResponse, error) {
	name := req.Segment(1)
	if name == "" {
		return notFound(), nil
	}

	switch req.Method {
	case protocol.MethodGet:
		return rt.readFile(req, name)
	case protocol.MethodPost:
		return rt.writeFile(req, name)
	default:
		return notFound(), nil
	}
}

func (rt *Router) readFile(req *protocol.HttpRequest, name string) (*protocol.HttpResponse, error) {
	data, err := rt.store.Read(name)
	if err != nil {
		if errors.IsNotFound(err) || errors.IsInvalidName(err) {
			return notFound(), nil
		}
		return protocol.NewResponse(protocol.StatusInternalServerError, "", nil, false), err
	}
	return protocol.NewResponse(protocol.StatusOK, protocol.ContentTypeBinary, data, protocol.NegotiateGzip(req)), nil
}

func (rt *Router) writeFile(req *protocol.HttpRequest, name string) (*protocol.HttpResponse, error) {
	if err := rt.store.Write(name, req.Body); err != nil {
		if errors.IsInvalidName(err) {
			return protocol.NewResponse(protocol.StatusBadRequest, "", nil, false), nil
		}
		return protocol.NewResponse(protocol.StatusInternalServerError, "", nil, false), err
	}
	return protocol.NewResponse(protocol.StatusCreated, "", nil, false), nil
}
