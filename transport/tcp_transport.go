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

// NetConn implements Conn on top of a net.Conn
type NetConn struct {
	conn        net.Conn
	readTimeout time.Duration
}

// NewNetConn wraps conn. A positive readTimeout bounds every Read.
func NewNetConn(conn net.Conn, readTimeout time.Duration) *NetConn {
	return &NetConn{
		conn:        conn,
		readTimeout: readTimeout,
	}
}

// Read receives data from the connection
func (c *NetConn) Read(buf []byte) (int, error) {
	if c.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}

	if c.readTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "failed to set read deadline", err)
		}
	}

	n, err := c.conn.Read(buf)
	if err != nil {
		switch {
		case stderrors.Is(err, os.ErrDeadlineExceeded):
			return n, errors.NewTransportError(errors.TransportErrorTimeout, "read timed out", err)
		case stderrors.Is(err, io.EOF) || (n == 0 && len(buf) > 0):
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", err)
		default:
			return n, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", err)
		}
	}

	return n, nil
}

// Write sends data over the connection
func (c *NetConn) Write(buf []byte) (int, error) {
	if c.conn == nil {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}

	n, err := c.conn.Write(buf)
	if err != nil {
		// Check for broken pipe or connection reset
		if stderrors.Is(err, syscall.EPIPE) || stderrors.Is(err, syscall.ECONNRESET) {
			return n, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed during write", err)
		}
		return n, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", err)
	}

	return n, nil
}

// Close closes the connection
func (c *NetConn) Close() error {
	if c.conn == nil {
		return nil // Idempotent close
	}

	err := c.conn.Close()
	c.conn = nil

	if err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close socket", err)
	}

	return nil
}

// RemoteAddr returns the peer address
func (c *NetConn) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// NewTcpListener listens on a TCP address such as "localhost:8080"
func NewTcpListener(addr string, opts ...ListenerOption) (*NetListener, error) {
	return listen("tcp", addr, opts...)
}
