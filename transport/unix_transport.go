package transport

import (
	"os"
)

// NewUnixListener listens on a Unix domain socket at path.
// A stale socket left by a previous run is removed first; any other file at path is left alone.
func NewUnixListener(path string, opts ...ListenerOption) (*NetListener, error) {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSocket != 0 {
		os.Remove(path)
	}
	return listen("unix", path, opts...)
}
