// Package resolver maps request targets onto the document root.
package resolver

import (
	"path/filepath"
	"strings"

	"github.com/nczempin/httpd-go-uring/filestore"
)

// Class is the classification of a resolved target
type Class int

const (
	Missing Class = iota
	File
	Directory
	Unsafe
)

func (c Class) String() string {
	switch c {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Unsafe:
		return "unsafe"
	default:
		return "missing"
	}
}

// ResolvedPath is a target normalized against the document root.
// Rel is slash-separated and relative to the root ("." for the root itself);
// it is empty when Class is Unsafe.
type ResolvedPath struct {
	Rel           string
	Class         Class
	TrailingSlash bool
}

// Stater is the part of a file store the resolver consults
type Stater interface {
	Stat(rel string) (filestore.Kind, error)
}

// Resolver classifies targets under a fixed, absolute root
type Resolver struct {
	root  string
	store Stater
}

// New creates a Resolver. root must be absolute.
func New(root string, store Stater) *Resolver {
	return &Resolver{
		root:  filepath.Clean(root),
		store: store,
	}
}

// Resolve joins target onto the root, normalizes it lexically and classifies it.
// Symlinks are not evaluated.
func (r *Resolver) Resolve(target string) ResolvedPath {
	rp := ResolvedPath{TrailingSlash: HasTrailingSlash(target)}

	rel, ok := r.contain(target)
	if !ok {
		rp.Class = Unsafe
		return rp
	}
	rp.Rel = rel

	kind, err := r.store.Stat(rel)
	switch {
	case err != nil:
		rp.Class = Missing
	case kind == filestore.KindDirectory:
		rp.Class = Directory
	case kind == filestore.KindFile:
		rp.Class = File
	default:
		rp.Class = Missing
	}
	return rp
}

// contain returns the root-relative form of target, or false if it leaves the root
func (r *Resolver) contain(target string) (string, bool) {
	if !strings.HasPrefix(target, "/") {
		return "", false
	}

	// concatenate first, then clean, so ".." is measured against the real root
	joined := filepath.Clean(r.root + filepath.FromSlash(target))

	prefix := r.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if joined != r.root && !strings.HasPrefix(joined, prefix) {
		return "", false
	}

	rel, err := filepath.Rel(r.root, joined)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// HasTrailingSlash reports whether target ends with "/"
func HasTrailingSlash(target string) bool {
	return strings.HasSuffix(target, "/")
}
