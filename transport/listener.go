package transport

import (
	"net"
	"time"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpd-go-uring/errors"
)

// NetListener implements Listener for tcp and unix networks. Accepted
// connections are NetConns, or UringConns sharing one ring when io_uring is enabled.
type NetListener struct {
	ln          net.Listener
	network     string
	readTimeout time.Duration
	useUring    bool
	ringEntries uint
	iour        *iouring.IOURing
}

// ListenerOption customizes a NetListener
type ListenerOption func(*NetListener)

// WithReadTimeout bounds each Read on accepted connections
func WithReadTimeout(d time.Duration) ListenerOption {
	return func(l *NetListener) { l.readTimeout = d }
}

// WithIoUring serves accepted connections through an io_uring instance of the given queue depth
func WithIoUring(entries uint) ListenerOption {
	return func(l *NetListener) {
		l.useUring = true
		l.ringEntries = entries
	}
}

func listen(network, addr string, opts ...ListenerOption) (*NetListener, error) {
	l := &NetListener{
		network:     network,
		ringEntries: 32,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.useUring {
		iour, err := iouring.New(l.ringEntries)
		if err != nil {
			return nil, errors.NewTransportError(
				errors.TransportErrorIoUringInit,
				"failed to initialize io_uring",
				err,
			)
		}
		l.iour = iour
	}

	ln, err := net.Listen(network, addr)
	if err != nil {
		l.Destroy()
		return nil, errors.NewTransportError(
			errors.TransportErrorListenFailure,
			"failed to listen on "+network+" "+addr,
			err,
		)
	}
	l.ln = ln

	return l, nil
}

// Accept waits for and wraps the next connection
func (l *NetListener) Accept() (Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, errors.NewTransportError(errors.TransportErrorAcceptFailure, "accept failed", err)
	}

	if l.iour != nil {
		uringConn, err := NewUringConn(l.iour, conn, l.readTimeout)
		if err != nil {
			return nil, err
		}
		return uringConn, nil
	}
	return NewNetConn(conn, l.readTimeout), nil
}

// Close stops accepting. Connections already accepted stay usable until Destroy.
func (l *NetListener) Close() error {
	if l.ln == nil {
		return nil
	}

	if err := l.ln.Close(); err != nil {
		return errors.NewTransportError(errors.TransportErrorSocketCloseFailure, "failed to close listener", err)
	}
	return nil
}

// Addr returns the bound address
func (l *NetListener) Addr() string {
	if l.ln == nil {
		return ""
	}
	return l.ln.Addr().String()
}

// Network returns "tcp" or "unix"
func (l *NetListener) Network() string {
	return l.network
}

// Destroy cleans up resources including the io_uring instance
func (l *NetListener) Destroy() {
	l.Close()
	if l.iour != nil {
		l.iour.Close()
		l.iour = nil
	}
}
