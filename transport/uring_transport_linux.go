//go:build linux

package transport

import (
	stderrors "errors"
	"net"
	"os"
	"sync"
	"time"

	"github.com/iceber/iouring-go"
	"golang.org/x/sys/unix"

	"github.com/nczempin/httpd-go-uring/errors"
)

// sharedRingEntries is the submission queue depth of a listener's ring
const sharedRingEntries = 64

// sharedRing is one io_uring instance used by every connection of a
// listener. It is closed when the listener and all its connections are done.
type sharedRing struct {
	mu   sync.Mutex
	iour *iouring.IOURing
	refs int
}

func newSharedRing() (*sharedRing, error) {
	iour, err := iouring.New(sharedRingEntries)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	return &sharedRing{iour: iour, refs: 1}, nil
}

func (r *sharedRing) acquire() (*iouring.IOURing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs == 0 {
		return nil, false
	}
	r.refs++
	return r.iour, true
}

func (r *sharedRing) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs == 0 {
		return
	}
	r.refs--
	if r.refs == 0 {
		r.iour.Close()
		r.iour = nil
	}
}

// UringConn implements Conn using io_uring for async I/O
type UringConn struct {
	ring   *sharedRing
	iour   *iouring.IOURing
	file   *os.File
	fd     int
	remote string
	closed bool
}

func newUringConn(ring *sharedRing, conn net.Conn) (*UringConn, error) {
	iour, ok := ring.acquire()
	if !ok {
		conn.Close()
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"io_uring already closed",
			nil,
		)
	}

	file, remote, err := detachFile(conn)
	if err != nil {
		ring.release()
		return nil, err
	}

	return &UringConn{
		ring:   ring,
		iour:   iour,
		file:   file,
		fd:     int(file.Fd()),
		remote: remote,
	}, nil
}

// Read receives data from the connection using io_uring
func (c *UringConn) Read(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	ch := make(chan iouring.Result, 1)
	prepReq := iouring.Recv(c.fd, buf, 0)
	if _, err := c.iour.SubmitRequest(prepReq, ch); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	result := <-ch
	n, err := result.ReturnInt()
	if err != nil {
		return 0, classifyErrno(err, errors.TransportErrorSocketReadFailure, "read failed")
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Write sends data over the connection using io_uring
func (c *UringConn) Write(buf []byte) (int, error) {
	if c.closed {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		ch := make(chan iouring.Result, 1)
		prepReq := iouring.Send(c.fd, buf[totalWritten:], 0)
		if _, err := c.iour.SubmitRequest(prepReq, ch); err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorIoUringSubmit,
				"failed to submit write request",
				err,
			)
		}

		result := <-ch
		n, err := result.ReturnInt()
		if err != nil {
			return totalWritten, classifyErrno(err, errors.TransportErrorSocketWriteFailure, "write failed")
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

func (c *UringConn) SetReadDeadline(time.Time) error  { return unsupportedDeadline() }
func (c *UringConn) SetWriteDeadline(time.Time) error { return unsupportedDeadline() }

func (c *UringConn) RemoteAddr() string {
	return c.remote
}

// Close closes the socket and drops this connection's hold on the ring
func (c *UringConn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	err := c.file.Close()
	c.ring.release()
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}
	return nil
}

// detachFile duplicates the socket of conn into an *os.File and closes conn.
// The duplicate is in blocking mode, which io_uring handles itself.
func detachFile(conn net.Conn) (*os.File, string, error) {
	remote := remoteString(conn)

	fc, ok := conn.(interface{ File() (*os.File, error) })
	if !ok {
		conn.Close()
		return nil, "", errors.NewTransportError(
			errors.TransportErrorUnsupported,
			"connection has no file descriptor",
			nil,
		)
	}

	file, err := fc.File()
	conn.Close()
	if err != nil {
		return nil, "", errors.NewTransportError(
			errors.TransportErrorAcceptFailure,
			"failed to duplicate socket",
			err,
		)
	}
	return file, remote, nil
}

// classifyErrno maps a completion errno to a transport error. A reset or
// broken pipe means the peer went away.
func classifyErrno(err error, code errors.TransportError, message string) error {
	switch {
	case stderrors.Is(err, unix.ECONNRESET), stderrors.Is(err, unix.EPIPE):
		return errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
	case stderrors.Is(err, unix.ETIMEDOUT):
		return errors.NewTransportError(errors.TransportErrorTimeout, message, err)
	default:
		return errors.NewTransportError(code, message, err)
	}
}
