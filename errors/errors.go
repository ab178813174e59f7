package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorTransport
	ErrorProtocol
	ErrorStorage
	ErrorInvalidArgument
)

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorListenFailure
	TransportErrorAcceptFailure
	TransportErrorSocketReadFailure
	TransportErrorSocketWriteFailure
	TransportErrorSocketCloseFailure
	TransportErrorConnectionClosed
	TransportErrorTimeout
	TransportErrorIoUringInit
	TransportErrorIoUringSubmit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorListenFailure:
		return "listen failed"
	case TransportErrorAcceptFailure:
		return "accept failed"
	case TransportErrorSocketReadFailure:
		return "socket read failed"
	case TransportErrorSocketWriteFailure:
		return "socket write failed"
	case TransportErrorSocketCloseFailure:
		return "socket close failed"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorTimeout:
		return "timeout"
	case TransportErrorIoUringInit:
		return "io_uring init failed"
	case TransportErrorIoUringSubmit:
		return "io_uring submit failed"
	default:
		return fmt.Sprintf("transport error %d", int(e))
	}
}

// ProtocolError represents protocol-layer specific errors
type ProtocolError int

const (
	ProtocolErrorNone ProtocolError = iota
	ProtocolErrorMalformedRequestLine
	ProtocolErrorMalformedHeader
	ProtocolErrorMessageTooLarge
	ProtocolErrorIncompleteRequest
)

func (e ProtocolError) String() string {
	switch e {
	case ProtocolErrorMalformedRequestLine:
		return "malformed request line"
	case ProtocolErrorMalformedHeader:
		return "malformed header"
	case ProtocolErrorMessageTooLarge:
		return "message too large"
	case ProtocolErrorIncompleteRequest:
		return "incomplete request"
	default:
		return fmt.Sprintf("protocol error %d", int(e))
	}
}

// StorageError represents file store errors
type StorageError int

const (
	StorageErrorNone StorageError = iota
	StorageErrorNotFound
	StorageErrorReadFailure
	StorageErrorIoUringInit
	StorageErrorIoUringSubmit
)

func (e StorageError) String() string {
	switch e {
	case StorageErrorNotFound:
		return "not found"
	case StorageErrorReadFailure:
		return "read failed"
	case StorageErrorIoUringInit:
		return "io_uring init failed"
	case StorageErrorIoUringSubmit:
		return "io_uring submit failed"
	default:
		return fmt.Sprintf("storage error %d", int(e))
	}
}

// HttpError is the main error type for the server
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	ProtocolErr   ProtocolError
	StorageErr    StorageError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorProtocol:
		typeStr = fmt.Sprintf("Protocol error (%s)", e.ProtocolErr)
	case ErrorStorage:
		typeStr = fmt.Sprintf("Storage error (%s)", e.StorageErr)
	case ErrorInvalidArgument:
		typeStr = "Invalid argument"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewProtocolError creates a new protocol error
func NewProtocolError(err ProtocolError, message string) *HttpError {
	return &HttpError{
		Type:        ErrorProtocol,
		ProtocolErr: err,
		Message:     message,
	}
}

// NewStorageError creates a new storage error
func NewStorageError(err StorageError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorStorage,
		StorageErr:    err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidArgument,
		Message: message,
	}
}

// As reports whether err wraps an *HttpError and returns it.
func As(err error) (*HttpError, bool) {
	var httpErr *HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// IsProtocol reports whether err is a protocol error.
func IsProtocol(err error) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Type == ErrorProtocol
}

// IsConnectionClosed reports whether err means the peer went away.
func IsConnectionClosed(err error) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Type == ErrorTransport &&
		httpErr.TransportErr == TransportErrorConnectionClosed
}

// IsNotFound reports whether err is a storage miss.
func IsNotFound(err error) bool {
	httpErr, ok := As(err)
	return ok && httpErr.Type == ErrorStorage && httpErr.StorageErr == StorageErrorNotFound
}
