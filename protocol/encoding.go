package protocol

import "strings"

// AcceptsGzip reports whether an Accept-Encoding value lists the exact token
// "gzip". Matching is case-sensitive; q-values and wildcards are not parsed.
func AcceptsGzip(acceptEncoding string) bool {
	for _, coding := range strings.Split(acceptEncoding, ",") {
		if strings.TrimSpace(coding) == EncodingGzip {
			return true
		}
	}
	return false
}

// NegotiateGzip looks up Accept-Encoding on req and applies AcceptsGzip.
func NegotiateGzip(req *HttpRequest) bool {
	v, ok := req.Header(HeaderAcceptEncoding)
	return ok && AcceptsGzip(v)
}
