package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/askdocs/askdocs/internal/domain"
)

func TestText_PlainFormats(t *testing.T) {
	cases := []struct {
		name string
		file string
	}{
		{"txt", "notes.txt"},
		{"md", "README.md"},
		{"uppercase extension", "NOTES.TXT"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Text(tc.file, []byte("hello world"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "hello world" {
				t.Errorf("expected passthrough text, got %q", got)
			}
		})
	}
}

func TestText_UnsupportedFormat(t *testing.T) {
	for _, file := range []string{"image.png", "archive.zip", "noextension"} {
		_, err := Text(file, []byte("data"))
		if !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", file, err)
		}
	}
}

func TestText_Docx(t *testing.T) {
	data := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := Text("contract.docx", data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "First paragraph.") {
		t.Errorf("missing first paragraph in %q", got)
	}
	if !strings.Contains(got, "Second paragraph.") {
		t.Errorf("expected runs of one paragraph joined, got %q", got)
	}
}

func TestText_DocxMalformed(t *testing.T) {
	if _, err := Text("broken.docx", []byte("not a zip archive")); err == nil {
		t.Fatal("expected error for malformed docx")
	}
}

func TestText_PdfMalformed(t *testing.T) {
	if _, err := Text("broken.pdf", []byte("not a pdf")); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestSupported(t *testing.T) {
	cases := map[string]bool{
		"a.txt":  true,
		"a.md":   true,
		"a.pdf":  true,
		"a.docx": true,
		"a.PDF":  true,
		"a.png":  false,
		"a":      false,
	}
	for name, want := range cases {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := f.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}
