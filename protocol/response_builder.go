package protocol

import (
	"path"
	"strconv"
	"time"

	"github.com/nczempin/httpd-go-uring/errors"
)

// TimeFormat is the IMF-fixdate layout used for the Date header
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// DefaultContentType is sent when the MIME resolver has no mapping
const DefaultContentType = "application/octet-stream"

const htmlContentType = "text/html"

var (
	notFoundPage = []byte(`<html>
<head><title>404 Not Found</title></head>
<body>
<h1>404 Not Found</h1>
<p>The requested resource could not be found on this server.</p>
</body>
</html>
`)
	badRequestPage = []byte(`<html>
<head><title>400 Bad Request</title></head>
<body>
<h1>400 Bad Request</h1>
<p>The server could not understand the request.</p>
</body>
</html>
`)
	internalErrorPage = []byte(`<html>
<head><title>500 Internal Server Error</title></head>
<body>
<h1>500 Internal Server Error</h1>
<p>The server failed to read the requested resource.</p>
</body>
</html>
`)
)

// NotFoundPage returns a copy of the fixed 404 body
func NotFoundPage() []byte {
	return append([]byte(nil), notFoundPage...)
}

// ContentReader reads file contents for 200 responses
type ContentReader interface {
	ReadAll(rel string) ([]byte, error)
}

// MimeResolver maps a file name to its MIME type
type MimeResolver interface {
	MimeTypeFor(name string) (string, bool)
}

// Builder renders intents into responses
type Builder struct {
	store       ContentReader
	mime        MimeResolver
	scheme      string
	authority   string
	defaultType string
	now         func() time.Time
}

// BuilderOption customizes a Builder
type BuilderOption func(*Builder)

// WithClock replaces time.Now as the source for the Date header
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithScheme sets the scheme used in Location headers
func WithScheme(scheme string) BuilderOption {
	return func(b *Builder) { b.scheme = scheme }
}

// WithDefaultType sets the Content-Type for files with no MIME mapping
func WithDefaultType(contentType string) BuilderOption {
	return func(b *Builder) { b.defaultType = contentType }
}

// NewBuilder creates a Builder. authority is used for Location when the
// request carries no Host header.
func NewBuilder(store ContentReader, mime MimeResolver, authority string, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:       store,
		mime:        mime,
		scheme:      "http",
		authority:   authority,
		defaultType: DefaultContentType,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders intent as a response to req. req may be nil when the request
// could not be parsed.
//
// The returned response is always complete. A non-nil error reports a read
// failure for an IntentOk that was degraded: a file that no longer exists
// becomes 404, any other failure becomes 500.
func (b *Builder) Build(req *HttpRequest, intent Intent) (*HttpResponse, error) {
	version := DefaultVersion
	if req != nil && req.Version != "" {
		version = req.Version
	}
	date := HttpHeader{Key: "Date", Value: b.now().UTC().Format(TimeFormat)}

	switch intent.Kind {
	case IntentMethodNotAllowed:
		return b.empty(version, StatusMethodNotAllowed,
			date,
			HttpHeader{Key: "Allow", Value: "GET"},
		), nil

	case IntentRedirect:
		return b.empty(version, StatusMovedPermanently,
			date,
			HttpHeader{Key: "Location", Value: b.location(req, intent.Location)},
		), nil

	case IntentOk:
		body, err := b.store.ReadAll(intent.File)
		if err != nil {
			if errors.IsNotFound(err) {
				return b.page(version, StatusNotFound, date, notFoundPage), err
			}
			return b.page(version, StatusInternalServerError, date, internalErrorPage), err
		}
		return b.withBody(version, StatusOK, date, b.contentType(intent.File), body), nil

	case IntentBadRequest:
		return b.page(version, StatusBadRequest, date, badRequestPage), nil

	case IntentInternalError:
		return b.page(version, StatusInternalServerError, date, internalErrorPage), nil

	default:
		return b.page(version, StatusNotFound, date, notFoundPage), nil
	}
}

// empty builds a bodiless response; extra headers come first, in order
func (b *Builder) empty(version string, code int, headers ...HttpHeader) *HttpResponse {
	headers = append(headers,
		HttpHeader{Key: "Content-Length", Value: "0"},
		HttpHeader{Key: "Connection", Value: "close"},
	)
	return &HttpResponse{
		Version:    version,
		StatusCode: code,
		StatusText: StatusText(code),
		Headers:    headers,
	}
}

func (b *Builder) page(version string, code int, date HttpHeader, page []byte) *HttpResponse {
	return b.withBody(version, code, date, htmlContentType, append([]byte(nil), page...))
}

func (b *Builder) withBody(version string, code int, date HttpHeader, contentType string, body []byte) *HttpResponse {
	return &HttpResponse{
		Version:    version,
		StatusCode: code,
		StatusText: StatusText(code),
		Headers: Headers{
			date,
			{Key: "Content-Type", Value: contentType},
			{Key: "Content-Length", Value: strconv.Itoa(len(body))},
			{Key: "Connection", Value: "close"},
		},
		Body: body,
	}
}

func (b *Builder) location(req *HttpRequest, correctedPath string) string {
	authority := b.authority
	if req != nil {
		if host, ok := req.Headers.Get("Host"); ok && host != "" {
			authority = host
		}
	}
	return b.scheme + "://" + authority + correctedPath
}

func (b *Builder) contentType(file string) string {
	if b.mime != nil {
		if mimeType, ok := b.mime.MimeTypeFor(path.Base(file)); ok {
			return mimeType
		}
	}
	return b.defaultType
}
