package config

import (
	"io"
	"testing"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg != Default() {
		t.Errorf("Expected defaults %+v, got %+v", Default(), cfg)
	}
	if cfg.Address() != "0.0.0.0:4221" {
		t.Errorf("Expected 0.0.0.0:4221, got %q", cfg.Address())
	}
}

func TestParse_AllFlags(t *testing.T) {
	args := []string{
		"--directory", "/tmp/data",
		"--host", "127.0.0.1",
		"--port", "8080",
		"--transport", "net",
		"--buffer-size", "4096",
		"--read-timeout", "5s",
		"--write-timeout", "2s",
		"--max-conns", "64",
		"--log-level", "debug",
		"--log-format", "console",
	}

	cfg, err := Parse(args, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := Config{
		Network:        "tcp",
		Host:           "127.0.0.1",
		Port:           8080,
		Directory:      "/tmp/data",
		Transport:      transport.KindNet,
		BufferSize:     4096,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   2 * time.Second,
		MaxConnections: 64,
		LogLevel:       "debug",
		LogFormat:      "console",
	}
	if cfg != want {
		t.Errorf("Expected %+v, got %+v", want, cfg)
	}
}

func TestParse_UnixAddress(t *testing.T) {
	cfg, err := Parse([]string{"--network", "unix", "--host", "/run/httpd.sock"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Address() != "/run/httpd.sock" {
		t.Errorf("Expected socket path, got %q", cfg.Address())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown transport", []string{"--transport", "epoll"}},
		{"port range", []string{"--port", "70000"}},
		{"zero buffer", []string{"--buffer-size", "0"}},
		{"negative timeout", []string{"--read-timeout", "-1s"}},
		{"timeout with io_uring", []string{"--transport", "uring", "--read-timeout", "1s"}},
		{"negative max conns", []string{"--max-conns", "-1"}},
		{"empty directory", []string{"--directory", ""}},
		{"bad network", []string{"--network", "udp"}},
		{"unix without path", []string{"--network", "unix", "--host", ""}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"bad log format", []string{"--log-format", "xml"}},
		{"positional", []string{"extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, io.Discard)
			if err == nil {
				t.Fatal("Expected error")
			}
			httpErr, ok := errors.As(err)
			if !ok || httpErr.Type != errors.ErrorInvalidArgument {
				t.Errorf("Expected invalid argument error, got %v", err)
			}
		})
	}
}

func TestParse_UnknownFlag(t *testing.T) {
	if _, err := Parse([]string{"--verbose"}, io.Discard); err == nil {
		t.Error("Expected error for an unknown flag")
	}
}
