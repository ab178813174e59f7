// Package dispatch decides and renders the response for one raw request.
package dispatch

import (
	"path"

	"github.com/nczempin/httpd-go-uring/protocol"
	"github.com/nczempin/httpd-go-uring/resolver"
)

// DefaultIndexFile is served for directory targets ending in "/"
const DefaultIndexFile = "index.html"

// MethodValid reports whether the server handles method. Only GET is.
func MethodValid(method string) bool {
	return method == "GET"
}

// Decide picks the response intent. The checks run in a fixed order and the
// first match wins: method, then missing trailing slash on a directory, then
// missing or unsafe, then ok.
func Decide(methodValid bool, rp resolver.ResolvedPath, target, indexFile string) protocol.Intent {
	switch {
	case !methodValid:
		return protocol.Intent{Kind: protocol.IntentMethodNotAllowed}

	case rp.Class == resolver.Directory && !rp.TrailingSlash:
		// the raw target is kept, so "/sub/." becomes "/sub/./"
		return protocol.Intent{Kind: protocol.IntentRedirect, Location: target + "/"}

	case rp.Class == resolver.Missing || rp.Class == resolver.Unsafe:
		return protocol.Intent{Kind: protocol.IntentNotFound}

	case rp.Class == resolver.Directory:
		return protocol.Intent{Kind: protocol.IntentOk, File: path.Join(rp.Rel, indexFile)}

	default:
		return protocol.Intent{Kind: protocol.IntentOk, File: rp.Rel}
	}
}
