package transport

import (
	"net"
	"os"
	"syscall"
	"time"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go-uring/errors"
)

// UringConn implements Conn using io_uring for socket I/O.
// A positive readTimeout is linked to every Recv as an IORING_OP_LINK_TIMEOUT.
type UringConn struct {
	iour        *iouring.IOURing
	file        *os.File
	fd          int
	remote      string
	readTimeout time.Duration
	closed      bool
}

// NewUringConn takes over conn's socket. The net.Conn is closed; the
// connection stays open through a duplicated descriptor in blocking mode.
func NewUringConn(iour *iouring.IOURing, conn net.Conn, readTimeout time.Duration) (*UringConn, error) {
	filer, ok := conn.(interface{ File() (*os.File, error) })
	if !ok {
		conn.Close()
		return nil, errors.NewTransportError(
			errors.TransportErrorAcceptFailure,
			"connection does not expose a file descriptor",
			nil,
		)
	}

	remote := conn.RemoteAddr().String()
	file, err := filer.File()
	conn.Close()
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorAcceptFailure,
			"failed to duplicate socket",
			err,
		)
	}

	return &UringConn{
		iour:        iour,
		file:        file,
		fd:          int(file.Fd()), // Fd puts the descriptor in blocking mode
		remote:      remote,
		readTimeout: readTimeout,
	}, nil
}

// completedBytes returns the byte count of a finished Send or Recv.
// Those requests carry no resolver, so the raw CQE result holds either the
// count or a negated errno.
func completedBytes(result iouring.Result) (int, error) {
	req, ok := result.(iouring.Request)
	if !ok {
		return 0, syscall.EINVAL
	}
	res, err := req.GetRes()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, syscall.Errno(-res)
	}
	return res, nil
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

		n, err := completedBytes(<-ch)
		if err == syscall.EPIPE || err == syscall.ECONNRESET {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed during write",
				err,
			)
		}
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
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
	var err error
	if c.readTimeout > 0 {
		// the linked timeout completes without notifying ch
		_, err = c.iour.SubmitLinkRequests(prepReq.WithTimeout(c.readTimeout), ch)
	} else {
		_, err = c.iour.SubmitRequest(prepReq, ch)
	}
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorIoUringSubmit,
			"failed to submit read request",
			err,
		)
	}

	n, err := completedBytes(<-ch)
	if c.readTimeout > 0 && (err == syscall.ECANCELED || err == syscall.EINTR) {
		return 0, errors.NewTransportError(errors.TransportErrorTimeout, "read timed out", err)
	}
	if err == syscall.ECONNRESET {
		return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection reset by peer", err)
	}
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
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

// Close closes the connection
func (c *UringConn) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	if err := c.file.Close(); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	return nil
}

// RemoteAddr returns the peer address captured at accept time
func (c *UringConn) RemoteAddr() string {
	return c.remote
}
