package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

var ErrEmpty = errors.New("empty document")

// ExtractFile reads path and extracts its text.
func ExtractFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Extract(filepath.Base(path), data)
}

// Extract sniffs the content first and falls back to the file extension.
// Supported: PDF, DOCX, plain text. The result has whitespace collapsed.
func Extract(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	ext := strings.ToLower(filepath.Ext(name))

	switch {
	case isPDF(data):
		return extractPDF(data)
	case isZip(data):
		return extractDOCX(data)
	case ext == ".pdf":
		return "", fmt.Errorf("file claims pdf but missing %%PDF header: name=%s head=%s", name, firstBytesHex(data, 16))
	case ext == ".docx":
		return "", fmt.Errorf("file claims docx but is not a zip container: name=%s", name)
	case isProbablyText(data):
		return CollapseWhitespace(string(data)), nil
	default:
		return "", fmt.Errorf("unsupported file type: name=%s head=%s", name, firstBytesHex(data, 16))
	}
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func isProbablyText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}

func firstBytesHex(b []byte, n int) string {
	n = min(len(b), n)
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
	}
	return string(out)
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	// Page by page so one broken page does not lose the rest.
	var out strings.Builder
	var firstErr error
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("pdf page %d: %w", i, err)
			}
			continue
		}
		out.WriteString(txt)
		out.WriteString("\n")
	}
	if out.Len() == 0 && firstErr != nil {
		return "", firstErr
	}
	return CollapseWhitespace(out.String()), nil
}

func extractDOCX(zipBytes []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return "", fmt.Errorf("docx zip: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("zip does not look like docx")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return CollapseWhitespace(textFromWordXML(b)), nil
}

// textFromWordXML gathers <w:t> text and breaks on paragraph ends.
func textFromWordXML(xmlBytes []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local != "t" {
				continue
			}
			var v string
			_ = dec.DecodeElement(&v, &se)
			out.WriteString(v)
		case xml.EndElement:
			if se.Name.Local == "p" {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}

// CollapseWhitespace turns every whitespace run into a single space and trims.
func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
