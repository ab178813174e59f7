package protocol

import (
	"fmt"

	"github.com/nczempin/httpd-go-uring/errors"
	"github.com/nczempin/httpd-go-uring/transport"
)

// DefaultReadLimit caps the size of a request header block
const DefaultReadLimit = 8192

// Http1Protocol reads one HTTP/1.1 request from a connection and writes one response
type Http1Protocol struct {
	transport transport.Conn
	buffer    []byte
	readLimit int
}

// NewHttp1Protocol creates a new HTTP/1.1 protocol handler.
// A readLimit of zero or less means DefaultReadLimit.
func NewHttp1Protocol(t transport.Conn, readLimit int) *Http1Protocol {
	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	return &Http1Protocol{
		transport: t,
		buffer:    make([]byte, 0, 1024),
		readLimit: readLimit,
	}
}

// ReadRequest reads until the blank line ending the headers.
// If the peer stops sending first (close or read timeout) the bytes received
// so far are returned as the request. The returned slice is only valid until
// the next ReadRequest.
func (p *Http1Protocol) ReadRequest() ([]byte, error) {
	p.buffer = p.buffer[:0]

	readBuf := make([]byte, 1024)

	for {
		n, err := p.transport.Read(readBuf)
		if n > 0 {
			p.buffer = append(p.buffer, readBuf[:n]...)
		}
		if err != nil {
			httpErr, ok := errors.As(err)
			endOfInput := ok && httpErr.Type == errors.ErrorTransport &&
				(httpErr.TransportErr == errors.TransportErrorConnectionClosed ||
					httpErr.TransportErr == errors.TransportErrorTimeout)
			if endOfInput && len(p.buffer) > 0 {
				break
			}
			return nil, err
		}

		if BodyOffset(p.buffer) >= 0 {
			break
		}

		if len(p.buffer) > p.readLimit {
			return nil, errors.NewProtocolError(
				errors.ProtocolErrorMessageTooLarge,
				fmt.Sprintf("request headers exceed %d bytes", p.readLimit),
			)
		}
	}

	return p.buffer, nil
}

// WriteResponse renders resp and writes all of it
func (p *Http1Protocol) WriteResponse(resp *HttpResponse) error {
	out := resp.Bytes()

	totalWritten := 0
	for totalWritten < len(out) {
		n, err := p.transport.Write(out[totalWritten:])
		if err != nil {
			return err
		}
		totalWritten += n
	}

	return nil
}

// Close closes the underlying connection
func (p *Http1Protocol) Close() error {
	return p.transport.Close()
}
