// Package server accepts connections and answers one request per connection.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/router"
	"github.com/nczempin/httpd-go-uring/transport"
)

// Accept backoff bounds
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server owns the accept loop and the per-connection handlers. All state it
// shares between connections is read-only except the file store behind the
// router.
type Server struct {
	cfg    config.Config
	router *router.Router
	log    zerolog.Logger

	// sem bounds concurrent handlers when cfg.MaxConnections > 0
	sem chan struct{}
	wg  sync.WaitGroup
}

// New creates a server. cfg must already be validated.
func New(cfg config.Config, rt *router.Router, log zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		router: rt,
		log:    log,
	}
	if cfg.MaxConnections > 0 {
		s.sem = make(chan struct{}, cfg.MaxConnections)
	}
	return s
}

// ListenAndServe binds the configured address and serves until ctx is done.
// A listen failure is returned as is and is the only fatal error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := transport.Listen(s.cfg.Network, s.cfg.Address(), s.cfg.Transport)
	if err != nil {
		return err
	}

	s.log.Info().
		Str("addr", l.Addr().String()).
		Str("transport", string(l.Kind())).
		Str("directory", s.cfg.Directory).
		Msg("listening")

	return s.Serve(ctx, l)
}

// Serve accepts connections from l and handles each in its own goroutine.
// Accept errors are logged and retried with backoff. Serve returns nil once
// ctx is done or l is closed, after in-flight connections finish.
func (s *Server) Serve(ctx context.Context, l *transport.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()
	defer l.Close()

	var delay time.Duration
	for {
		if !s.acquire(ctx) {
			break
		}

		conn, err := l.Accept()
		if err != nil {
			s.releaseSlot()
			if transport.IsClosed(err) || ctx.Err() != nil {
				break
			}

			delay *= 2
			if delay < minAcceptDelay {
				delay = minAcceptDelay
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.log.Warn().Err(err).Dur("retry_in", delay).Msg("accept failed")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.releaseSlot()
			s.ServeConn(conn)
		}()
	}

	s.wg.Wait()
	s.log.Info().Msg("server stopped")
	return nil
}

func (s *Server) acquire(ctx context.Context) bool {
	if s.sem == nil {
		return ctx.Err() == nil
	}
	select {
	case s.sem <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Server) releaseSlot() {
	if s.sem != nil {
		<-s.sem
	}
}

// ServeConn handles one connection end to end: a single read, parse, route,
// a single write, close. Errors and panics stay inside this connection.
func (s *Server) ServeConn(conn transport.Conn) {
	start := time.Now()
	log := s.log.With().Str("remote", conn.RemoteAddr()).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("connection handler panicked")
		}
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("close failed")
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(start.Add(s.cfg.ReadTimeout)); err != nil {
			log.Debug().Err(err).Msg("read deadline not set")
		}
	}

	buf := make([]byte, s.cfg.BufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		if errors.IsConnectionClosed(err) {
			log.Debug().Err(err).Msg("peer closed before sending a request")
		} else {
			log.Warn().Err(err).Msg("read failed")
		}
		return
	}

	req, err := protocol.ParseRequest(buf[:n])
	if err != nil {
		log.Warn().Err(err).Int("bytes", n).Msg("malformed request")
		s.send(log, conn, protocol.NewResponse(protocol.StatusBadRequest, "", nil, false))
		return
	}
	log = log.With().Str("method", req.Method).Str("path", req.RawPath).Logger()

	resp, err := s.router.Route(req)
	if err != nil {
		log.Error().Err(err).Int("status", resp.StatusCode).Msg("handler failed")
	}

	if s.send(log, conn, resp) {
		log.Info().
			Int("status", resp.StatusCode).
			Int("bytes", len(resp.Body)).
			Dur("elapsed", time.Since(start)).
			Msg("request served")
	}
}

// send writes resp with one Write call and reports whether it succeeded
func (s *Server) send(log zerolog.Logger, conn transport.Conn, resp *protocol.HttpResponse) bool {
	if s.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			log.Debug().Err(err).Msg("write deadline not set")
		}
	}

	if _, err := resp.WriteTo(conn); err != nil {
		log.Warn().Err(err).Int("status", resp.StatusCode).Msg("send failed")
		return false
	}
	return true
}
