//go:build linux

package server

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/transport"
)

func TestServer_UringTransports(t *testing.T) {
	for _, kind := range []transport.Kind{transport.KindIoUring, transport.KindUring} {
		t.Run(string(kind), func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Transport = kind
			ts := startServer(t, cfg, zerolog.Nop())

			expectWire(t, roundTrip(t, ts.addr, "GET /echo/abc HTTP/1.1\r\nAccept-Encoding: gzip\r\n\r\n"),
				"HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\nContent-Type: text/plain\r\nContent-Length: 3\r\n\r\nabc")

			expectWire(t, roundTrip(t, ts.addr, "POST /files/data HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"),
				"HTTP/1.1 201 Created\r\n\r\n")
			expectWire(t, roundTrip(t, ts.addr, "GET /files/data HTTP/1.1\r\n\r\n"),
				"HTTP/1.1 200 OK\r\nContent-Type: application/octet-stream\r\nContent-Length: 5\r\n\r\nhello")

			expectWire(t, roundTrip(t, ts.addr, "BROKEN\r\n\r\n"), "HTTP/1.1 400 Bad Request\r\n\r\n")
		})
	}
}
