package transport

import (
	stderrors "errors"
	"fmt"
	"net"
	"sync"

	"github.com/nczempin/httpd-go-uring/errors"
)

// wrapFunc turns an accepted net.Conn into a Conn of the listener's kind.
// On error it must have closed the net.Conn.
type wrapFunc func(net.Conn) (Conn, error)

// Listener accepts connections and hands them out as Conn values of one Kind
type Listener struct {
	ln      net.Listener
	kind    Kind
	wrap    wrapFunc
	release func()

	closeOnce sync.Once
	closeErr  error
}

// Listen binds network ("tcp" or "unix") at addr. Failures are
// TransportErrorListenFailure or TransportErrorIoUringInit and mean the
// server cannot start.
func Listen(network, addr string, kind Kind) (*Listener, error) {
	wrap, release, err := newWrapper(kind)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen(network, addr)
	if err != nil {
		release()
		return nil, errors.NewTransportError(
			errors.TransportErrorListenFailure,
			fmt.Sprintf("failed to listen on %s %s", network, addr),
			err,
		)
	}

	return &Listener{
		ln:      ln,
		kind:    kind,
		wrap:    wrap,
		release: release,
	}, nil
}

// Accept waits for the next connection. After Close it returns an error
// wrapping net.ErrClosed.
func (l *Listener) Accept() (Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, errors.NewTransportError(errors.TransportErrorAcceptFailure, "accept failed", err)
	}

	// wrap errors are already classified
	return l.wrap(conn)
}

// Close stops accepting. Connections already handed out stay usable; shared
// io_uring resources are freed once the last of them is closed. Only the
// first call has an effect.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		err := l.ln.Close()
		l.release()
		if err != nil {
			l.closeErr = errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close listener", err)
		}
	})
	return l.closeErr
}

// Addr returns the bound address
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Kind returns the connection kind produced by Accept
func (l *Listener) Kind() Kind {
	return l.kind
}

// IsClosed reports whether err came from accepting on a closed listener
func IsClosed(err error) bool {
	return stderrors.Is(err, net.ErrClosed)
}
