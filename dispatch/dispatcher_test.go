package dispatch

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nczempin/httpd-go-uring/filestore"
	"github.com/nczempin/httpd-go-uring/mimetype"
	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/resolver"
)

// setupTestSite lays out <tmp>/www with index.html, sub/ and a secret next to www
func setupTestSite(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "www")
	files := map[string]string{
		"www/index.html":     "hello demo",
		"www/sub/index.html": "sub index",
		"www/style.css":      "body{}",
		"www/data.unknown":   "\x00\x01\x02",
		"secret.txt":         "top secret",
	}
	for rel, content := range files {
		full := filepath.Join(base, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", filepath.Dir(full), err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("Failed to create empty dir: %v", err)
	}
	return root
}

func newTestDispatcher(root string, store filestore.FileStore) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	builder := protocol.NewBuilder(store, mimetype.NewTable(nil), "x",
		protocol.WithClock(func() time.Time { return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC) }))
	return NewDispatcher(resolver.New(root, store), builder, "", logger)
}

func serve(t *testing.T, d *Dispatcher, raw string) *protocol.HttpResponse {
	t.Helper()
	resp := d.Serve([]byte(raw))
	if resp == nil {
		t.Fatalf("Serve(%q) returned nil", raw)
	}
	if v, ok := resp.Headers.Get("Content-Length"); ok && v != strconv.Itoa(len(resp.Body)) {
		t.Errorf("Serve(%q): Content-Length %s does not match body length %d", raw, v, len(resp.Body))
	}
	if _, ok := resp.Headers.Get("Date"); !ok {
		t.Errorf("Serve(%q): missing Date header", raw)
	}
	return resp
}

func TestDispatcher_Scenarios(t *testing.T) {
	root := setupTestSite(t)

	stores := map[string]filestore.FileStore{
		"Dir":      filestore.NewDir(root),
		"UringDir": filestore.NewUringDir(root),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			d := newTestDispatcher(root, store)

			// index served for the root
			resp := serve(t, d, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
			if resp.StatusCode == protocol.StatusInternalServerError && name == "UringDir" {
				t.Skip("io_uring unavailable")
			}
			if resp.StatusCode != 200 {
				t.Fatalf("Expected 200, got %d", resp.StatusCode)
			}
			if v, _ := resp.Headers.Get("Content-Type"); v != "text/html" {
				t.Errorf("Expected text/html, got %q", v)
			}
			if v, _ := resp.Headers.Get("Content-Length"); v != "10" {
				t.Errorf("Expected Content-Length 10, got %q", v)
			}
			if string(resp.Body) != "hello demo" {
				t.Errorf("Expected body %q, got %q", "hello demo", resp.Body)
			}

			// directory without trailing slash
			resp = serve(t, d, "GET /sub HTTP/1.1\r\n\r\n")
			if resp.StatusCode != 301 {
				t.Fatalf("Expected 301, got %d", resp.StatusCode)
			}
			if v, _ := resp.Headers.Get("Location"); v != "http://x/sub/" {
				t.Errorf("Expected Location http://x/sub/, got %q", v)
			}
			if len(resp.Body) != 0 {
				t.Errorf("Expected empty body, got %q", resp.Body)
			}

			// missing file
			resp = serve(t, d, "GET /nope.html HTTP/1.1\r\n\r\n")
			if resp.StatusCode != 404 {
				t.Fatalf("Expected 404, got %d", resp.StatusCode)
			}
			if !bytes.Equal(resp.Body, protocol.NotFoundPage()) {
				t.Errorf("Expected fixed 404 page, got %q", resp.Body)
			}
			if v, _ := resp.Headers.Get("Content-Type"); v != "text/html" {
				t.Errorf("Expected text/html, got %q", v)
			}

			// non-GET method
			if resp = serve(t, d, "POST / HTTP/1.1\r\n\r\n"); resp.StatusCode != 405 {
				t.Errorf("Expected 405, got %d", resp.StatusCode)
			}

			// traversal
			resp = serve(t, d, "GET /../secret.txt HTTP/1.1\r\n\r\n")
			if resp.StatusCode != 404 {
				t.Errorf("Expected 404 for traversal, got %d", resp.StatusCode)
			}
			if bytes.Contains(resp.Bytes(), []byte("top secret")) {
				t.Error("Traversal leaked file contents")
			}
		})
	}
}

func TestDispatcher_TraversalVariants(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	targets := []string{
		"/../secret.txt",
		"/../../etc/passwd",
		"/sub/../../secret.txt",
		"/./../secret.txt",
		"/..",
		"/../",
		"../secret.txt",
	}
	for _, target := range targets {
		resp := serve(t, d, "GET "+target+" HTTP/1.1\r\n\r\n")
		if resp.StatusCode != 404 {
			t.Errorf("GET %s: expected 404, got %d", target, resp.StatusCode)
		}
		if bytes.Contains(resp.Bytes(), []byte(filepath.Dir(root))) {
			t.Errorf("GET %s: response reveals filesystem path", target)
		}
	}
}

func TestDispatcher_MethodDominates(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	for _, method := range []string{"POST", "PUT", "DELETE", "HEAD"} {
		for _, target := range []string{"/", "/sub", "/nope.html", "/../secret.txt"} {
			resp := serve(t, d, method+" "+target+" HTTP/1.1\r\n\r\n")
			if resp.StatusCode != 405 {
				t.Errorf("%s %s: expected 405, got %d", method, target, resp.StatusCode)
			}
		}
	}
}

func TestDispatcher_FileRoundTrip(t *testing.T) {
	root := setupTestSite(t)
	payload := make([]byte, 5000)
	for i := range payload {
		payload[i] = byte(255 - i%256)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "blob.bin"), payload, 0o644); err != nil {
		t.Fatalf("Failed to write blob: %v", err)
	}
	d := newTestDispatcher(root, filestore.NewDir(root))

	resp := serve(t, d, "GET /sub/blob.bin HTTP/1.1\r\n\r\n")
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !bytes.Equal(resp.Body, payload) {
		t.Error("Body does not match file bytes")
	}
	if v, _ := resp.Headers.Get("Content-Type"); v != mimetype.DefaultType {
		t.Errorf("Expected %s, got %q", mimetype.DefaultType, v)
	}

	resp = serve(t, d, "GET /style.css HTTP/1.1\r\n\r\n")
	if v, _ := resp.Headers.Get("Content-Type"); v != "text/css" {
		t.Errorf("Expected text/css, got %q", v)
	}
}

func TestDispatcher_DirectoryWithSlash(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	resp := serve(t, d, "GET /sub/ HTTP/1.1\r\n\r\n")
	if resp.StatusCode != 200 || string(resp.Body) != "sub index" {
		t.Errorf("Expected sub index, got %d %q", resp.StatusCode, resp.Body)
	}

	// no index.html in the directory
	if resp = serve(t, d, "GET /empty/ HTTP/1.1\r\n\r\n"); resp.StatusCode != 404 {
		t.Errorf("Expected 404 for directory without index, got %d", resp.StatusCode)
	}
}

func TestDispatcher_DotSegmentRedirectIsLiteral(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	resp := serve(t, d, "GET /sub/. HTTP/1.1\r\nHost: x\r\n\r\n")
	if resp.StatusCode != 301 {
		t.Fatalf("Expected 301, got %d", resp.StatusCode)
	}
	if v, _ := resp.Headers.Get("Location"); v != "http://x/sub/./" {
		t.Errorf("Expected Location http://x/sub/./, got %q", v)
	}
}

func TestDispatcher_Idempotent(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	for _, raw := range []string{
		"GET / HTTP/1.1\r\nHost: x\r\n\r\n",
		"GET /sub HTTP/1.1\r\n\r\n",
		"GET /nope HTTP/1.1\r\n\r\n",
		"PUT / HTTP/1.1\r\n\r\n",
	} {
		first := d.Serve([]byte(raw)).Bytes()
		second := d.Serve([]byte(raw)).Bytes()
		if !bytes.Equal(first, second) {
			t.Errorf("Responses to %q differ:\n%q\n%q", raw, first, second)
		}
	}
}

func TestDispatcher_MalformedRequests(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	for _, raw := range []string{
		"",
		"GET /\r\n\r\n",
		"GET / HTTP/1.1 extra\r\n\r\n",
		"GET / HTTP/1.1\r\nBroken header\r\n\r\n",
	} {
		resp := serve(t, d, raw)
		if resp.StatusCode != 400 {
			t.Errorf("Serve(%q): expected 400, got %d", raw, resp.StatusCode)
		}
		if !strings.HasPrefix(string(resp.Bytes()), "HTTP/1.1 400 Bad Request\r\n") {
			t.Errorf("Serve(%q): unexpected status line in %q", raw, resp.Bytes())
		}
	}
}

func TestDispatcher_VersionEchoed(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	resp := serve(t, d, "GET / HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(string(resp.Bytes()), "HTTP/1.0 200 OK\r\n") {
		t.Errorf("Expected HTTP/1.0 status line, got %q", resp.Bytes())
	}
}

// vanishingStore reports every file as present and fails every read
type vanishingStore struct {
	filestore.FileStore
	readErr error
}

func (s vanishingStore) ReadAll(rel string) ([]byte, error) {
	return nil, s.readErr
}

func TestDispatcher_ReadRace(t *testing.T) {
	root := setupTestSite(t)
	dir := filestore.NewDir(root)

	// file removed between Stat and ReadAll
	gone := vanishingStore{FileStore: dir}
	_, gone.readErr = dir.ReadAll("removed.html")
	d := newTestDispatcher(root, gone)
	if resp := serve(t, d, "GET /index.html HTTP/1.1\r\n\r\n"); resp.StatusCode != 404 {
		t.Errorf("Expected 404 for vanished file, got %d", resp.StatusCode)
	}

	// any other read failure
	broken := vanishingStore{FileStore: dir}
	_, broken.readErr = dir.ReadAll("sub")
	d = newTestDispatcher(root, broken)
	if resp := serve(t, d, "GET /index.html HTTP/1.1\r\n\r\n"); resp.StatusCode != 500 {
		t.Errorf("Expected 500 for read failure, got %d", resp.StatusCode)
	}
}

func TestDispatcher_Reject(t *testing.T) {
	root := setupTestSite(t)
	d := newTestDispatcher(root, filestore.NewDir(root))

	resp := d.Reject(io.ErrUnexpectedEOF)
	if resp.StatusCode != 400 {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}
