// Command httpd serves static files from a document root over HTTP/1.1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/dispatch"
	"github.com/nczempin/httpd-go-uring/filestore"
	"github.com/nczempin/httpd-go-uring/mimetype"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/resolver"
	"github.com/nczempin/httpd-go-uring/server"
	"github.com/nczempin/httpd-go-uring/transport"
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "httpd: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "httpd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := cfg.NewLogger(os.Stderr)

	var store filestore.FileStore
	switch cfg.FileIO {
	case config.FileIOUring:
		store = filestore.NewUringDir(cfg.Root)
	default:
		store = filestore.NewDir(cfg.Root)
	}

	opts := []transport.ListenerOption{transport.WithReadTimeout(cfg.ReadTimeout)}
	if cfg.Transport == config.TransportIoUring {
		opts = append(opts, transport.WithIoUring(cfg.RingEntries))
	}

	var (
		listener *transport.NetListener
		err      error
	)
	if cfg.Network == "unix" {
		listener, err = transport.NewUnixListener(cfg.Addr, opts...)
	} else {
		listener, err = transport.NewTcpListener(cfg.Addr, opts...)
	}
	if err != nil {
		return err
	}
	defer listener.Destroy()

	builder := protocol.NewBuilder(store, mimetype.NewTable(nil), cfg.Authority,
		protocol.WithScheme(cfg.Scheme),
		protocol.WithDefaultType(cfg.DefaultType),
	)
	d := dispatch.NewDispatcher(resolver.New(cfg.Root, store), builder, cfg.IndexFile, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving",
		"root", cfg.Root,
		"network", cfg.Network,
		"transport", cfg.Transport,
		"fileio", cfg.FileIO,
	)
	server.New(listener, d, cfg.ReadLimit, logger).Serve(ctx)
	return nil
}
