//go:build linux

package transport

import "net"

func newWrapper(kind Kind) (wrapFunc, func(), error) {
	switch kind {
	case KindNet:
		return wrapNet, func() {}, nil
	case KindIoUring:
		ring, err := newSharedRing()
		if err != nil {
			return nil, nil, err
		}
		return func(conn net.Conn) (Conn, error) {
			c, err := newUringConn(ring, conn)
			if err != nil {
				return nil, err
			}
			return c, nil
		}, ring.release, nil
	case KindUring:
		if err := probeUring(); err != nil {
			return nil, nil, err
		}
		return func(conn net.Conn) (Conn, error) {
			c, err := NewUringConnV2(conn)
			if err != nil {
				return nil, err
			}
			return c, nil
		}, func() {}, nil
	default:
		_, err := ParseKind(string(kind))
		return nil, nil, err
	}
}

func wrapNet(conn net.Conn) (Conn, error) {
	return NewNetConn(conn), nil
}
