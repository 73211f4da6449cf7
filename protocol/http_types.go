package protocol

// Request methods the router distinguishes
const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// ProtocolHTTP11 is the version written on every status line
const ProtocolHTTP11 = "HTTP/1.1"

// Status codes produced by the server
const (
	StatusOK                  = 200
	StatusCreated             = 201
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusInternalServerError = 500
)

// Header names
const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderContentType     = "Content-Type"
	HeaderUserAgent       = "User-Agent"
)

// Content types and codings
const (
	ContentTypeText   = "text/plain"
	ContentTypeBinary = "application/octet-stream"
	EncodingGzip      = "gzip"
)

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// HttpRequest represents a parsed HTTP request. It is not modified after
// ParseRequest returns.
type HttpRequest struct {
	Method          string
	RawPath         string
	PathSegments    []string
	ProtocolVersion string
	Headers         map[string]string
	Body            []byte
}

// Header returns the value of the named header. Names are case-sensitive.
func (r *HttpRequest) Header(name string) (string, bool) {
	v, ok := r.Headers[name]
	return v, ok
}

// Segment returns the i-th path segment, or "" if the path is shorter.
func (r *HttpRequest) Segment(i int) string {
	if i < 0 || i >= len(r.PathSegments) {
		return ""
	}
	return r.PathSegments[i]
}

// HttpResponse represents an HTTP response. Headers are kept in the order
// they are serialized.
type HttpResponse struct {
	StatusCode    int
	StatusMessage string
	Headers       []HttpHeader
	Body          []byte
}

// Header returns the value of the named response header.
func (r *HttpResponse) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if h.Key == name {
			return h.Value, true
		}
	}
	return "", false
}

// StatusText returns the reason phrase for the status codes the server uses.
func StatusText(code int) string {
	switch code {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "Created"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Unknown"
	}
}
