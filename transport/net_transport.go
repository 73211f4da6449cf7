package transport

import (
	stderrors "errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
)

// NetConn implements Conn over a net.Conn (TCP or Unix domain socket)
type NetConn struct {
	conn   net.Conn
	remote string
}

// NewNetConn wraps an accepted net.Conn
func NewNetConn(conn net.Conn) *NetConn {
	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	return &NetConn{
		conn:   conn,
		remote: remoteString(conn),
	}
}

// Read receives data from the connection
func (c *NetConn) Read(buf []byte) (int, error) {
	if c.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed", nil)
	}

	n, err := c.conn.Read(buf)
	if err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
		}
		if isTimeout(err) {
			return n, errors.NewTransportError(errors.TransportErrorTimeout, "read deadline exceeded", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
	}

	return n, nil
}

// Write sends data over the connection
func (c *NetConn) Write(buf []byte) (int, error) {
	if c.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed", nil)
	}

	n, err := c.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed during write", err)
		}
		if isTimeout(err) {
			return n, errors.NewTransportError(errors.TransportErrorTimeout, "write deadline exceeded", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
	}

	return n, nil
}

func (c *NetConn) SetReadDeadline(t time.Time) error {
	if c.conn == nil {
		return nil
	}
	return c.conn.SetReadDeadline(t)
}

func (c *NetConn) SetWriteDeadline(t time.Time) error {
	if c.conn == nil {
		return nil
	}
	return c.conn.SetWriteDeadline(t)
}

func (c *NetConn) RemoteAddr() string {
	return c.remote
}

// Close closes the connection
func (c *NetConn) Close() error {
	if c.conn == nil {
		return nil // Idempotent close
	}

	err := c.conn.Close()
	c.conn = nil

	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "close failed", err)
	}

	return nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func remoteString(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil && addr.String() != "" {
		return addr.String()
	}
	return "@"
}
