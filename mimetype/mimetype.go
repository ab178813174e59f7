// Package mimetype maps file extensions to MIME types.
package mimetype

import (
	"path"
	"strings"
)

// DefaultType is served for files whose extension has no mapping.
const DefaultType = "application/octet-stream"

// Table is an extension to MIME type lookup. Keys are lower case
// extensions without the leading dot.
type Table struct {
	types map[string]string
}

// NewTable returns the built-in table with overrides applied on top.
func NewTable(overrides map[string]string) *Table {
	types := make(map[string]string, len(defaultTypes)+len(overrides))
	for ext, mimeType := range defaultTypes {
		types[ext] = mimeType
	}
	for ext, mimeType := range overrides {
		types[strings.ToLower(strings.TrimPrefix(ext, "."))] = mimeType
	}
	return &Table{types: types}
}

// MimeTypeFor returns the MIME type for name's extension, if known.
func (t *Table) MimeTypeFor(name string) (string, bool) {
	ext := path.Ext(name)
	if ext == "" {
		return "", false
	}
	mimeType, ok := t.types[strings.ToLower(ext[1:])]
	return mimeType, ok
}

var defaultTypes = map[string]string{
	"7z":   "application/x-7z-compressed",
	"atom": "application/atom+xml",
	"bin":  "application/octet-stream",
	"bmp":  "image/x-ms-bmp",
	"css":  "text/css",
	"csv":  "text/csv",
	"doc":  "application/msword",
	"gif":  "image/gif",
	"gz":   "application/gzip",
	"htm":  "text/html",
	"html": "text/html",
	"ico":  "image/x-icon",
	"jar":  "application/java-archive",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"js":   "application/javascript",
	"json": "application/json",
	"m4a":  "audio/x-m4a",
	"md":   "text/markdown",
	"mov":  "video/quicktime",
	"mp3":  "audio/mpeg",
	"mp4":  "video/mp4",
	"mpeg": "video/mpeg",
	"pdf":  "application/pdf",
	"png":  "image/png",
	"ps":   "application/postscript",
	"rss":  "application/rss+xml",
	"rtf":  "application/rtf",
	"svg":  "image/svg+xml",
	"tar":  "application/x-tar",
	"txt":  "text/plain",
	"wasm": "application/wasm",
	"webm": "video/webm",
	"webp": "image/webp",
	"woff": "font/woff",
	"xml":  "text/xml",
	"zip":  "application/zip",
}
