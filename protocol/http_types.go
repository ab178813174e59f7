package protocol

import "strings"

// Status codes the server emits
const (
	StatusOK                  = 200
	StatusMovedPermanently    = 301
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusInternalServerError = 500
)

// StatusText returns the reason phrase for code
func StatusText(code int) string {
	switch code {
	case StatusOK:
		return "OK"
	case StatusMovedPermanently:
		return "Moved Permanently"
	case StatusBadRequest:
		return "Bad Request"
	case StatusNotFound:
		return "Not Found"
	case StatusMethodNotAllowed:
		return "Method Not Allowed"
	case StatusInternalServerError:
		return "Internal Server Error"
	default:
		return ""
	}
}

// DefaultVersion is used when no request line could be parsed
const DefaultVersion = "HTTP/1.1"

// HttpHeader represents an HTTP header key-value pair
type HttpHeader struct {
	Key   string
	Value string
}

// Headers is an ordered header list. Keys keep the case they were received or set with.
type Headers []HttpHeader

// Get returns the value of the first header whose key matches name case-insensitively
func (h Headers) Get(name string) (string, bool) {
	for _, header := range h {
		if strings.EqualFold(header.Key, name) {
			return header.Value, true
		}
	}
	return "", false
}

// HttpRequest represents a parsed request. Target is kept exactly as received,
// percent-encoded sequences included.
type HttpRequest struct {
	Method  string
	Target  string
	Version string
	Headers Headers
}

// HttpResponse represents a response ready to be written
type HttpResponse struct {
	Version    string
	StatusCode int
	StatusText string
	Headers    Headers
	Body       []byte
}

// Bytes renders the status line, headers, blank line and body
func (r *HttpResponse) Bytes() []byte {
	size := len(r.Version) + len(r.StatusText) + 8
	for _, header := range r.Headers {
		size += len(header.Key) + len(header.Value) + 4
	}
	size += 2 + len(r.Body)

	buf := make([]byte, 0, size)
	buf = append(buf, r.Version...)
	buf = append(buf, ' ')
	buf = appendStatusCode(buf, r.StatusCode)
	buf = append(buf, ' ')
	buf = append(buf, r.StatusText...)
	buf = append(buf, crlf...)
	for _, header := range r.Headers {
		buf = append(buf, header.Key...)
		buf = append(buf, headerSeparator...)
		buf = append(buf, header.Value...)
		buf = append(buf, crlf...)
	}
	buf = append(buf, crlf...)
	buf = append(buf, r.Body...)
	return buf
}

func appendStatusCode(buf []byte, code int) []byte {
	return append(buf, byte('0'+code/100%10), byte('0'+code/10%10), byte('0'+code%10))
}

// IntentKind is the decided outcome for a request
type IntentKind int

const (
	IntentOk IntentKind = iota
	IntentRedirect
	IntentNotFound
	IntentMethodNotAllowed
	IntentBadRequest
	IntentInternalError
)

func (k IntentKind) String() string {
	switch k {
	case IntentOk:
		return "ok"
	case IntentRedirect:
		return "redirect"
	case IntentNotFound:
		return "not-found"
	case IntentMethodNotAllowed:
		return "method-not-allowed"
	case IntentBadRequest:
		return "bad-request"
	case IntentInternalError:
		return "internal-error"
	default:
		return "unknown"
	}
}

// Intent is a response decision before rendering.
// Location is set for IntentRedirect, File for IntentOk.
type Intent struct {
	Kind     IntentKind
	Location string
	File     string
}
