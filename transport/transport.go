package transport

// Conn is one accepted connection
type Conn interface {
	// Read receives data from the peer
	// Returns the number of bytes read
	Read(buf []byte) (int, error)

	// Write sends data to the peer
	// Returns the number of bytes written
	Write(buf []byte) (int, error)

	// Close closes the connection
	Close() error

	// RemoteAddr names the peer for logging
	RemoteAddr() string
}

// Listener accepts connections on a bound address
type Listener interface {
	// Accept waits for the next connection
	Accept() (Conn, error)

	// Close stops the listener; a blocked Accept returns an error
	Close() error

	// Addr returns the bound address
	Addr() string
}
