// Package config holds the server configuration built once at startup.
package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

// Defaults
const (
	DefaultHost       = "0.0.0.0"
	DefaultPort       = 4221
	DefaultDirectory  = "."
	DefaultBufferSize = 1024
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
)

// Config is read-only once the server starts and is shared by all
// connections.
type Config struct {
	// Network is "tcp" or "unix"
	Network string
	// Host is the bind address, or the socket path for unix
	Host string
	Port int

	// Directory is the file root for /files
	Directory string

	Transport transport.Kind

	// BufferSize bounds a request: the connection is read once into a buffer
	// of this size and anything beyond it is dropped.
	BufferSize int

	// Zero means no deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxConnections caps concurrently handled connections; zero means
	// unbounded.
	MaxConnections int

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no flags are given
func Default() Config {
	return Config{
		Network:    "tcp",
		Host:       DefaultHost,
		Port:       DefaultPort,
		Directory:  DefaultDirectory,
		Transport:  transport.KindNet,
		BufferSize: DefaultBufferSize,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// Parse builds a Config from command-line arguments (without the program
// name) and validates it.
func Parse(args []string, output io.Writer) (Config, error) {
	cfg := Default()
	var kind string

	fs := flag.NewFlagSet("httpd", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Directory, "directory", cfg.Directory, "root directory served under /files")
	fs.StringVar(&cfg.Network, "network", cfg.Network, "listen network: tcp|unix")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "bind address, or socket path when --network=unix")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	fs.StringVar(&kind, "transport", string(cfg.Transport), "connection I/O: net|iouring|uring")
	fs.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "request receive buffer size in bytes")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", 0, "per-connection read deadline (0 = none)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 0, "per-connection write deadline (0 = none)")
	fs.IntVar(&cfg.MaxConnections, "max-conns", 0, "maximum concurrent connections (0 = unbounded)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: trace|debug|info|warn|error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: json|console")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, errors.NewInvalidArgumentError(fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}

	k, err := transport.ParseKind(kind)
	if err != nil {
		return Config{}, err
	}
	cfg.Transport = k

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and combinations
func (c Config) Validate() error {
	switch c.Network {
	case "tcp":
		if c.Port < 0 || c.Port > 65535 {
			return errors.NewInvalidArgumentError(fmt.Sprintf("port %d out of range", c.Port))
		}
	case "unix":
		if c.Host == "" {
			return errors.NewInvalidArgumentError("unix network needs a socket path in --host")
		}
	default:
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown network %q (use tcp|unix)", c.Network))
	}

	if c.Directory == "" {
		return errors.NewInvalidArgumentError("directory must not be empty")
	}
	if c.BufferSize <= 0 {
		return errors.NewInvalidArgumentError(fmt.Sprintf("buffer size %d must be positive", c.BufferSize))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.NewInvalidArgumentError("timeouts must not be negative")
	}
	if (c.ReadTimeout > 0 || c.WriteTimeout > 0) && !c.Transport.SupportsDeadlines() {
		return errors.NewInvalidArgumentError(fmt.Sprintf("transport %q does not support timeouts", c.Transport))
	}
	if c.MaxConnections < 0 {
		return errors.NewInvalidArgumentError("max connections must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.NewInvalidArgumentError(fmt.Sprintf("unknown log format %q (use json|console)", c.LogFormat))
	}
	return nil
}

// Address returns the listen address for Network
func (c Config) Address() string {
	if c.Network == "unix" {
		return c.Host
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
