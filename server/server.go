// Package server runs the accept loop and handles one request per connection.
package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/transport"
)

// Handler produces the response for one request
type Handler interface {
	// Serve answers the raw request bytes
	Serve(raw []byte) *protocol.HttpResponse

	// Reject answers a request that could not be read in full
	Reject(err error) *protocol.HttpResponse
}

// Server accepts connections and answers exactly one request on each
type Server struct {
	listener  transport.Listener
	handler   Handler
	readLimit int
	logger    *slog.Logger
	wg        sync.WaitGroup
}

// New creates a Server. A readLimit of zero or less means protocol.DefaultReadLimit.
func New(listener transport.Listener, handler Handler, readLimit int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listener:  listener,
		handler:   handler,
		readLimit: readLimit,
		logger:    logger,
	}
}

// Serve accepts until ctx is cancelled or the listener is closed, then waits
// for in-flight connections to finish.
func (s *Server) Serve(ctx context.Context) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-done:
		}
	}()

	s.logger.Info("listening", "addr", s.listener.Addr())

	for {
		conn, acceptErr := s.listener.Accept()
		if acceptErr != nil {
			if ctx.Err() != nil || stderrors.Is(acceptErr, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed", "error", acceptErr)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}

	s.wg.Wait()
	s.logger.Info("stopped", "addr", s.listener.Addr())
}

func (s *Server) handleConnection(conn transport.Conn) {
	defer s.wg.Done()

	p := protocol.NewHttp1Protocol(conn, s.readLimit)
	defer p.Close()

	logger := s.logger.With("remote", conn.RemoteAddr())
	defer func() {
		if r := recover(); r != nil {
			logger.Error("connection handler panicked", "panic", r)
		}
	}()

	var resp *protocol.HttpResponse
	raw, err := p.ReadRequest()
	switch {
	case err == nil:
		resp = s.handler.Serve(raw)
	case errors.IsProtocol(err):
		resp = s.handler.Reject(err)
	case errors.IsConnectionClosed(err):
		logger.Debug("peer closed before sending a request")
		return
	default:
		logger.Debug("no request read", "error", err)
		return
	}

	if err := p.WriteResponse(resp); err != nil {
		logger.Debug("failed to write response", "error", err)
		return
	}

	logger.Info("response sent", "status", resp.StatusCode, "bytes", len(resp.Body))
}
