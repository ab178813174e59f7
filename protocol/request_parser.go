package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
)

var (
	headerTerminator   = []byte("\r\n\r\n")
	lfHeaderTerminator = []byte("\n\n")
	crlf               = []byte("\r\n")
	headerSeparator    = []byte(": ")
)

// BodyOffset returns the index just past the blank line ending the header block,
// or -1 when raw has no blank line.
func BodyOffset(raw []byte) int {
	crlfPos := bytes.Index(raw, headerTerminator)
	lfPos := bytes.Index(raw, lfHeaderTerminator)

	switch {
	case crlfPos >= 0 && (lfPos < 0 || crlfPos < lfPos):
		return crlfPos + len(headerTerminator)
	case lfPos >= 0:
		return lfPos + len(lfHeaderTerminator)
	default:
		return -1
	}
}

// ParseRequest parses a request line and headers out of raw.
// Without a blank line the whole input is treated as the header block.
// Anything after the blank line is ignored.
func ParseRequest(raw []byte) (*HttpRequest, error) {
	headerBlock := raw
	if offset := BodyOffset(raw); offset >= 0 {
		headerBlock = raw[:offset]
	}

	lines := strings.Split(string(headerBlock), "\n")
	requestLine := strings.TrimSuffix(lines[0], "\r")

	method, target, version, err := parseRequestLine(requestLine)
	if err != nil {
		return nil, err
	}

	req := &HttpRequest{
		Method:  method,
		Target:  target,
		Version: version,
	}

	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if len(line) == 0 {
			break
		}

		header, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		req.Headers = append(req.Headers, header)
	}

	return req, nil
}

// parseRequestLine splits "GET / HTTP/1.1" into exactly three non-empty tokens
func parseRequestLine(line string) (string, string, string, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return "", "", "", errors.NewProtocolError(
			errors.ProtocolErrorMalformedRequestLine,
			fmt.Sprintf("expected 3 tokens, got %d", len(parts)),
		)
	}

	for _, part := range parts {
		if part == "" {
			return "", "", "", errors.NewProtocolError(
				errors.ProtocolErrorMalformedRequestLine,
				"empty token in request line",
			)
		}
	}

	return parts[0], parts[1], parts[2], nil
}

// parseHeaderLine requires exactly one ": " between name and value
func parseHeaderLine(line string) (HttpHeader, error) {
	if strings.Count(line, ": ") != 1 {
		return HttpHeader{}, errors.NewProtocolError(
			errors.ProtocolErrorMalformedHeader,
			fmt.Sprintf("header line %q must contain exactly one \": \"", line),
		)
	}

	name, value, _ := strings.Cut(line, ": ")
	if name == "" {
		return HttpHeader{}, errors.NewProtocolError(
			errors.ProtocolErrorMalformedHeader,
			"empty header name",
		)
	}

	return HttpHeader{Key: name, Value: value}, nil
}
