package services

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestExtractTextFromTXT(t *testing.T) {
	svc := NewDocExtractService()

	text, err := svc.ExtractText("notes.txt", []byte("  line one \r\n\r\n\r\n line two \r\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "line one\n\nline two" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextRejectsUnknownExtension(t *testing.T) {
	svc := NewDocExtractService()

	if _, err := svc.ExtractText("photo.png", []byte{0x89, 0x50}); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestExtractTextFromDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("failed to build docx fixture: %v", err)
	}
	w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>All hands on Friday &amp; snacks</w:t></w:r></w:p></w:body></w:document>`))
	zw.Close()

	svc := NewDocExtractService()
	text, err := svc.ExtractText("agenda.docx", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "All hands on Friday & snacks" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestStripDOCXMLHandlesBreaksAndEntities(t *testing.T) {
	src := []byte(`<w:p>first</w:p><w:p>second<w:br/>third &lt;tag&gt;</w:p>`)

	got := stripDOCXML(src)
	want := "first\nsecond\nthird <tag>\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
