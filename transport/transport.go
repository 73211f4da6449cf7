package transport

import (
	"fmt"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Conn is one accepted client connection
type Conn interface {
	// Read receives data from the peer.
	// Returns the number of bytes read or an error.
	Read(buf []byte) (int, error)

	// Write sends data to the peer.
	// Returns the number of bytes written or an error.
	Write(buf []byte) (int, error)

	// SetReadDeadline and SetWriteDeadline bound blocking I/O. Transports
	// without deadline support return a TransportErrorUnsupported error.
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error

	// RemoteAddr describes the peer for logging.
	RemoteAddr() string

	// Close closes the connection. It is safe to call more than once.
	Close() error
}

// Kind selects how accepted connections perform I/O
type Kind string

const (
	// KindNet uses the Go runtime network poller
	KindNet Kind = "net"
	// KindIoUring submits Recv/Send through one io_uring shared by all
	// connections of a listener (iceber/iouring-go)
	KindIoUring Kind = "iouring"
	// KindUring gives every connection its own ring (godzie44/go-uring)
	KindUring Kind = "uring"
)

// ParseKind validates a transport name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindNet, KindIoUring, KindUring:
		return k, nil
	default:
		return "", errors.NewInvalidArgumentError(
			fmt.Sprintf("unknown transport %q (use net|iouring|uring)", s),
		)
	}
}

// SupportsDeadlines reports whether connections of this kind honor
// SetReadDeadline and SetWriteDeadline
func (k Kind) SupportsDeadlines() bool {
	return k == KindNet
}

func unsupportedDeadline() error {
	return errors.NewTransportError(
		errors.TransportErrorUnsupported,
		"deadlines are not supported by io_uring connections",
		nil,
	)
}
