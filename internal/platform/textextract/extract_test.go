package textextract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>The</w:t></w:r><w:r><w:t xml:space="preserve"> VMGOP</w:t></w:r></w:p>
<w:p><w:r><w:t>Preface</w:t></w:r></w:p>
</w:body></w:document>`
	got, err := Extract("im.docx", buildDocx(t, xml))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "The VMGOP Preface" {
		t.Fatalf("Extract = %q", got)
	}
}

func TestExtractPlainText(t *testing.T) {
	got, err := Extract("notes.txt", []byte("  Table of\n\tContents  \n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Table of Contents" {
		t.Fatalf("Extract = %q", got)
	}
}

func TestExtractErrors(t *testing.T) {
	if _, err := Extract("empty.pdf", nil); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	_, err := Extract("fake.pdf", []byte{0x01, 0x02, 0x00, 0x03})
	if err == nil || !strings.Contains(err.Error(), "missing %PDF header") {
		t.Fatalf("expected header error, got %v", err)
	}
	if _, err := Extract("broken.pdf", []byte("%PDF-1.4 not really a pdf")); err == nil {
		t.Fatalf("expected pdf reader error")
	}
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("References"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ExtractFile(p)
	if err != nil || got != "References" {
		t.Fatalf("ExtractFile = %q, %v", got, err)
	}
	if _, err := ExtractFile(filepath.Join(dir, "missing.pdf")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace(" a  b \n\n c "); got != "a b c" {
		t.Fatalf("CollapseWhitespace = %q", got)
	}
}
