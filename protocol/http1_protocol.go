package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
)

var crlf = []byte("\r\n")

// ParseRequest parses a raw request buffer into an HttpRequest.
//
// The buffer may carry NUL padding from a fixed-size receive buffer. The head
// (request line and headers) ends at the first NUL byte. Without a valid
// Content-Length the body ends there too; with one, the body is bounded by it
// and may contain NUL bytes, but never extends into the trailing NUL run.
func ParseRequest(buf []byte) (*HttpRequest, error) {
	limit := len(buf)
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		limit = i
	}

	lines, bodyStart := splitHead(buf[:limit])
	if len(lines) == 0 {
		return nil, errors.NewProtocolError(
			errors.ProtocolErrorEmptyRequest,
			"no request line",
		)
	}

	method, path, version, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	headers := parseHeaders(lines[1:])

	var body []byte
	if bodyStart >= 0 {
		end := limit
		if n, ok := contentLength(headers); ok {
			end = bodyStart + n
			if data := len(bytes.TrimRight(buf, "\x00")); end > data {
				end = data
			}
		}
		if end > bodyStart {
			body = bytes.Clone(buf[bodyStart:end])
		}
	}

	return &HttpRequest{
		Method:          method,
		RawPath:         path,
		PathSegments:    SplitPath(path),
		ProtocolVersion: version,
		Headers:         headers,
		Body:            body,
	}, nil
}

// splitHead returns the head lines without terminators and the offset of the
// first body byte, or -1 when no blank line terminates the head.
func splitHead(head []byte) ([][]byte, int) {
	var lines [][]byte
	pos := 0
	for pos < len(head) {
		var line []byte
		if nl := bytes.IndexByte(head[pos:], '\n'); nl >= 0 {
			line = head[pos : pos+nl]
			pos += nl + 1
		} else {
			line = head[pos:]
			pos = len(head)
		}
		line = bytes.TrimSuffix(line, []byte("\r"))

		if len(line) == 0 && len(lines) > 0 {
			return lines, pos
		}
		lines = append(lines, line)
	}
	return lines, -1
}

func parseRequestLine(line []byte) (method, path, version string, err error) {
	tokens := strings.Fields(string(line))
	if len(tokens) != 3 {
		return "", "", "", errors.NewProtocolError(
			errors.ProtocolErrorInvalidRequestLine,
			fmt.Sprintf("expected 3 tokens, got %d", len(tokens)),
		)
	}
	return tokens[0], tokens[1], tokens[2], nil
}

// parseHeaders is lenient: lines without a colon are skipped and the last
// occurrence of a name wins.
func parseHeaders(lines [][]byte) map[string]string {
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		idx := bytes.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		headers[string(line[:idx])] = strings.TrimSpace(string(line[idx+1:]))
	}
	return headers
}

func contentLength(headers map[string]string) (int, bool) {
	v, ok := headers[HeaderContentLength]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// NewResponse builds a response. Headers are added in serialization order:
// Content-Encoding, Content-Type, then Content-Length when body is non-empty.
func NewResponse(statusCode int, contentType string, body []byte, gzip bool) *HttpResponse {
	resp := &HttpResponse{
		StatusCode:    statusCode,
		StatusMessage: StatusText(statusCode),
		Body:          body,
	}
	if gzip {
		resp.Headers = append(resp.Headers, HttpHeader{Key: HeaderContentEncoding, Value: EncodingGzip})
	}
	if contentType != "" {
		resp.Headers = append(resp.Headers, HttpHeader{Key: HeaderContentType, Value: contentType})
	}
	if len(body) > 0 {
		resp.Headers = append(resp.Headers, HttpHeader{Key: HeaderContentLength, Value: strconv.Itoa(len(body))})
	}
	return resp
}

// Bytes serializes the response into a single buffer
func (r *HttpResponse) Bytes() []byte {
	size := len(ProtocolHTTP11) + len(r.StatusMessage) + 16 + len(r.Body)
	for _, h := range r.Headers {
		size += len(h.Key) + len(h.Value) + 4
	}
	buf := make([]byte, 0, size)

	// Status line
	buf = append(buf, ProtocolHTTP11...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(r.StatusCode), 10)
	buf = append(buf, ' ')
	buf = append(buf, r.StatusMessage...)
	buf = append(buf, crlf...)

	// Headers
	for _, h := range r.Headers {
		buf = append(buf, h.Key...)
		buf = append(buf, ": "...)
		buf = append(buf, h.Value...)
		buf = append(buf, crlf...)
	}

	// Blank line
	buf = append(buf, crlf...)

	return append(buf, r.Body...)
}

// WriteTo writes the serialized response with a single Write call
func (r *HttpResponse) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}
