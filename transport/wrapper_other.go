//go:build !linux

package transport

import (
	"net"

	"github.com/nczempin/httpd-go-uring/errors"
)

func newWrapper(kind Kind) (wrapFunc, func(), error) {
	switch kind {
	case KindNet:
		return wrapNet, func() {}, nil
	case KindIoUring, KindUring:
		return nil, nil, errors.NewTransportError(
			errors.TransportErrorUnsupported,
			"io_uring transports require linux",
			nil,
		)
	default:
		_, err := ParseKind(string(kind))
		return nil, nil, err
	}
}

func wrapNet(conn net.Conn) (Conn, error) {
	return NewNetConn(conn), nil
}
