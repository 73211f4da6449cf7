//go:build linux

package transport

import (
	"net"
	"os"
	"time"

	"github.com/godzie44/go-uring/uring"

	"github.com/nczempin/httpd-go-uring/errors"
)

// connRingEntries is the queue depth of a per-connection ring. A connection
// has at most one operation in flight.
const connRingEntries = 4

// UringConnV2 implements Conn using godzie44/go-uring. Rings from this
// library are not safe for concurrent submitters, so each connection owns one.
type UringConnV2 struct {
	ring   *uring.Ring
	file   *os.File
	remote string
}

// probeUring checks once that rings can be created on this kernel
func probeUring() error {
	ring, err := uring.New(1)
	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}
	return ring.Close()
}

// NewUringConnV2 takes ownership of conn and sets up its ring
func NewUringConnV2(conn net.Conn) (*UringConnV2, error) {
	ring, err := uring.New(connRingEntries)
	if err != nil {
		conn.Close()
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	file, remote, err := detachFile(conn)
	if err != nil {
		ring.Close()
		return nil, err
	}

	return &UringConnV2{
		ring:   ring,
		file:   file,
		remote: remote,
	}, nil
}

// Read receives data from the connection using io_uring
func (c *UringConnV2) Read(buf []byte) (int, error) {
	if c.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	n, err := c.complete(uring.Read(c.file.Fd(), buf, 0), errors.TransportErrorSocketReadFailure, "read")
	if err != nil {
		return 0, err
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
func (c *UringConnV2) Write(buf []byte) (int, error) {
	if c.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := c.complete(uring.Write(c.file.Fd(), buf[totalWritten:], 0), errors.TransportErrorSocketWriteFailure, "write")
		if err != nil {
			return totalWritten, err
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

// complete queues op, submits it and waits for its completion
func (c *UringConnV2) complete(op uring.Operation, code errors.TransportError, what string) (int, error) {
	if err := c.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to queue "+what+" request",
			err,
		)
	}

	if _, err := c.ring.Submit(); err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit "+what+" request",
			err,
		)
	}

	cqe, err := c.ring.WaitCQEvents(1)
	if err != nil {
		return 0, errors.NewTransportError(
			code,
			"failed to wait for "+what+" completion",
			err,
		)
	}

	if err := cqe.Error(); err != nil {
		c.ring.SeenCQE(cqe)
		return 0, classifyErrno(err, code, what+" operation failed")
	}

	n := int(cqe.Res)
	c.ring.SeenCQE(cqe)
	return n, nil
}

func (c *UringConnV2) SetReadDeadline(time.Time) error  { return unsupportedDeadline() }
func (c *UringConnV2) SetWriteDeadline(time.Time) error { return unsupportedDeadline() }

func (c *UringConnV2) RemoteAddr() string {
	return c.remote
}

// Close closes the socket and the ring
func (c *UringConnV2) Close() error {
	if c.file == nil {
		return nil
	}

	err := c.file.Close()
	c.file = nil
	c.ring.Close()
	c.ring = nil

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}
	return nil
}
