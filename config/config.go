// Package config holds the server settings and parses them from the command line.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
)

// Transport choices
const (
	TransportNet     = "net"
	TransportIoUring = "iouring"
)

// File I/O choices
const (
	FileIOOs    = "os"
	FileIOUring = "uring"
)

// Config is the full server configuration
type Config struct {
	Network     string        // "tcp" or "unix"
	Addr        string        // host:port, or socket path for unix
	Root        string        // document root, absolute after Validate
	Authority   string        // Location authority when Host is absent
	Scheme      string        // Location scheme
	IndexFile   string        // served for directory targets ending in "/"
	DefaultType string        // Content-Type for unmapped extensions
	Transport   string        // TransportNet or TransportIoUring
	FileIO      string        // FileIOOs or FileIOUring
	RingEntries uint          // io_uring queue depth for the transport
	ReadTimeout time.Duration // per-read deadline on accepted connections
	ReadLimit   int           // maximum request header bytes
	LogLevel    string
	LogFormat   string // "text" or "json"
}

// Default returns the configuration used when no flags are given
func Default() Config {
	return Config{
		Network:     "tcp",
		Addr:        "localhost:8080",
		Root:        "./www",
		Scheme:      "http",
		IndexFile:   "index.html",
		DefaultType: "application/octet-stream",
		Transport:   TransportNet,
		FileIO:      FileIOOs,
		RingEntries: 32,
		ReadTimeout: 30 * time.Second,
		ReadLimit:   8192,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Parse reads flags from args (without the program name) on top of Default
// and validates the result. Usage and flag errors are written to output.
func Parse(args []string, output io.Writer) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("httpd", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.Network, "network", cfg.Network, "listen network: tcp or unix")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address, or socket path for unix")
	fs.StringVar(&cfg.Root, "root", cfg.Root, "document root")
	fs.StringVar(&cfg.Authority, "authority", cfg.Authority, "authority for redirects when Host is absent (default: listen address)")
	fs.StringVar(&cfg.Scheme, "scheme", cfg.Scheme, "scheme for redirect locations")
	fs.StringVar(&cfg.IndexFile, "index", cfg.IndexFile, "index file for directories")
	fs.StringVar(&cfg.DefaultType, "default-type", cfg.DefaultType, "content type for unknown extensions")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "connection I/O: net or iouring")
	fs.StringVar(&cfg.FileIO, "fileio", cfg.FileIO, "file reads: os or uring")
	fs.UintVar(&cfg.RingEntries, "ring-entries", cfg.RingEntries, "io_uring queue depth for -transport iouring")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "per-read timeout on accepted connections (0 disables)")
	fs.IntVar(&cfg.ReadLimit, "read-limit", cfg.ReadLimit, "maximum request header bytes")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		return cfg, errors.NewInvalidArgumentError(fmt.Sprintf("unexpected arguments: %v", fs.Args()))
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks every field and normalizes Root to an absolute path
// and Authority to the listen address when unset.
func (c *Config) Validate() error {
	switch c.Network {
	case "tcp", "unix":
	default:
		return errors.NewInvalidArgumentError("network must be tcp or unix, got " + c.Network)
	}

	if c.Addr == "" {
		return errors.NewInvalidArgumentError("addr is required")
	}

	if c.Root == "" {
		return errors.NewInvalidArgumentError("root is required")
	}
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return errors.NewInvalidArgumentError("cannot resolve root: " + err.Error())
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return errors.NewInvalidArgumentError("root is not a directory: " + root)
	}
	c.Root = root

	if c.Authority == "" {
		c.Authority = c.Addr
		if c.Network == "unix" {
			c.Authority = "localhost"
		}
	}

	if c.Scheme == "" {
		return errors.NewInvalidArgumentError("scheme is required")
	}

	if c.IndexFile == "" || strings.ContainsRune(c.IndexFile, '/') {
		return errors.NewInvalidArgumentError("index must be a plain file name")
	}

	if c.DefaultType == "" {
		return errors.NewInvalidArgumentError("default-type is required")
	}

	switch c.Transport {
	case TransportNet, TransportIoUring:
	default:
		return errors.NewInvalidArgumentError("transport must be net or iouring, got " + c.Transport)
	}

	switch c.FileIO {
	case FileIOOs, FileIOUring:
	default:
		return errors.NewInvalidArgumentError("fileio must be os or uring, got " + c.FileIO)
	}

	if c.Transport == TransportIoUring && c.RingEntries == 0 {
		return errors.NewInvalidArgumentError("ring-entries must be positive")
	}

	if c.ReadTimeout < 0 {
		return errors.NewInvalidArgumentError("read-timeout must not be negative")
	}

	if c.ReadLimit <= 0 {
		return errors.NewInvalidArgumentError("read-limit must be positive")
	}

	if _, err := c.level(); err != nil {
		return err
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.NewInvalidArgumentError("log-format must be text or json, got " + c.LogFormat)
	}

	return nil
}

// NewLogger builds the slog logger described by LogLevel and LogFormat
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, errors.NewInvalidArgumentError("invalid log-level " + c.LogLevel)
	}
	return level, nil
}
