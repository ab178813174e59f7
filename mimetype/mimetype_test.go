package mimetype

import "testing"

func TestTable_MimeTypeFor(t *testing.T) {
	table := NewTable(nil)

	tests := []struct {
		name   string
		want   string
		wantOk bool
	}{
		{"index.html", "text/html", true},
		{"sub/base.css", "text/css", true},
		{"LOGO.PNG", "image/png", true},
		{"archive.tar.gz", "application/gzip", true},
		{"README", "", false},
		{"notes.unknownext", "", false},
		{".hidden", "", false},
	}

	for _, tt := range tests {
		got, ok := table.MimeTypeFor(tt.name)
		if ok != tt.wantOk || got != tt.want {
			t.Errorf("MimeTypeFor(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestTable_Overrides(t *testing.T) {
	table := NewTable(map[string]string{
		".HTML": "text/html; charset=utf-8",
		"foo":   "application/x-foo",
	})

	if got, _ := table.MimeTypeFor("a.html"); got != "text/html; charset=utf-8" {
		t.Errorf("Expected override for html, got %q", got)
	}
	if got, _ := table.MimeTypeFor("a.foo"); got != "application/x-foo" {
		t.Errorf("Expected new mapping for foo, got %q", got)
	}

	// overrides must not leak into other tables
	if got, _ := NewTable(nil).MimeTypeFor("a.html"); got != "text/html" {
		t.Errorf("Expected built-in html mapping, got %q", got)
	}
}
