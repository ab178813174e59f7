package dispatch

import (
	"context"
	"log/slog"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/resolver"
)

// Dispatcher turns raw request bytes into a finished response.
// It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	resolver  *resolver.Resolver
	builder   *protocol.Builder
	indexFile string
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher. An empty indexFile means DefaultIndexFile.
func NewDispatcher(r *resolver.Resolver, b *protocol.Builder, indexFile string, logger *slog.Logger) *Dispatcher {
	if indexFile == "" {
		indexFile = DefaultIndexFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		resolver:  r,
		builder:   b,
		indexFile: indexFile,
		logger:    logger,
	}
}

// Serve parses raw and builds the response. It always returns a complete
// response: parse errors become 400, read failures 404 or 500.
func (d *Dispatcher) Serve(raw []byte) *protocol.HttpResponse {
	req, err := protocol.ParseRequest(raw)
	if err != nil {
		d.logger.Warn("rejecting malformed request", "error", err)
		resp, _ := d.builder.Build(nil, protocol.Intent{Kind: protocol.IntentBadRequest})
		return resp
	}

	resp, _ := d.Handle(req)
	return resp
}

// Reject builds the 400 response for a request that could not be read, such
// as one whose headers exceed the read limit.
func (d *Dispatcher) Reject(err error) *protocol.HttpResponse {
	d.logger.Warn("rejecting unreadable request", "error", err)
	resp, _ := d.builder.Build(nil, protocol.Intent{Kind: protocol.IntentBadRequest})
	return resp
}

// Handle runs resolution, decision and rendering for a parsed request.
// The intent is returned alongside the response for logging and tests.
func (d *Dispatcher) Handle(req *protocol.HttpRequest) (*protocol.HttpResponse, protocol.Intent) {
	methodValid := MethodValid(req.Method)

	var rp resolver.ResolvedPath
	if methodValid {
		rp = d.resolver.Resolve(req.Target)
		if rp.Class == resolver.Unsafe {
			d.logger.Debug("target escapes document root", "target", req.Target)
		}
	}

	intent := Decide(methodValid, rp, req.Target, d.indexFile)

	resp, err := d.builder.Build(req, intent)
	if err != nil {
		level := slog.LevelError
		if errors.IsNotFound(err) {
			level = slog.LevelWarn
		}
		d.logger.Log(context.Background(), level, "file read failed after classification",
			"target", req.Target,
			"file", intent.File,
			"status", resp.StatusCode,
			"error", err,
		)
	}

	d.logger.Debug("request served",
		"method", req.Method,
		"target", req.Target,
		"intent", intent.Kind.String(),
		"status", resp.StatusCode,
	)

	return resp, intent
}
