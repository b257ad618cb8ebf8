package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>This certifies that {{AUTHOR_NAME}}, {{AUTHOR_RANK}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">of </w:t></w:r><w:r><w:t>{{COLLEGE_NAME}}</w:t></w:r><w:r><w:t>{{SPLIT</w:t></w:r><w:r><w:t>_FIELD}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{multi</w:t><w:tab/><w:t>}}</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Issued {{DATE_ISSUED}} &amp; valid</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:pPr><w:jc w:val="left"/></w:pPr><w:r><w:t>[QR CODE SPACE]</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p/>
<w:sectPr/></w:body></w:document>`

const testRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

func buildPackage(t *testing.T, parts map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, parts[name]); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func testTemplate(t *testing.T) []byte {
	t.Helper()
	return buildPackage(t, map[string]string{
		contentTypesPart:  testContentTypes,
		relsPart:          testRels,
		documentPart:      testDocumentXML,
		"word/styles.xml": `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`,
	}, []string{contentTypesPart, relsPart, documentPart, "word/styles.xml"})
}

func TestReplacePlaceholdersDoesNotRescanValues(t *testing.T) {
	d, err := Open(testTemplate(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	n, err := d.ReplacePlaceholders(map[string]string{
		"{{AUTHOR_NAME}}":  "Ana {{AUTHOR_RANK}}",
		"{{AUTHOR_RANK}}":  "Instructor I",
		"{{COLLEGE_NAME}}": "{{SPLIT_FIELD}} College",
		"{{SPLIT_FIELD}}":  "split",
	})
	if err != nil {
		t.Fatalf("ReplacePlaceholders: %v", err)
	}
	if n != 3 {
		t.Fatalf("replacements = %d, want 3", n)
	}
	text := d.Text()
	for _, want := range []string{
		"This certifies that Ana {{AUTHOR_RANK}}, Instructor I",
		// The split key spans two runs and stays unresolved.
		"of {{SPLIT_FIELD}} College{{SPLIT_FIELD}}",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
}

func readPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return string(b)
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestReplacePlaceholdersInBodyAndTables(t *testing.T) {
	d, err := Open(testTemplate(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	n, err := d.ReplacePlaceholders(map[string]string{
		"{{AUTHOR_NAME}}":  "Ana <B> Cruz",
		"{{AUTHOR_RANK}}":  "Instructor I",
		"{{COLLEGE_NAME}}": "College of Engineering",
		"{{DATE_ISSUED}}":  "March 03, 2025",
		"{{multi}}":        "joined",
	})
	if err != nil {
		t.Fatalf("ReplacePlaceholders: %v", err)
	}
	if n != 5 {
		t.Fatalf("replacements = %d, want 5", n)
	}
	text := d.Text()
	for _, want := range []string{
		"This certifies that Ana <B> Cruz, Instructor I",
		"of College of Engineering{{SPLIT_FIELD}}",
		"joined",
		"Issued March 03, 2025 & valid",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
	if got := d.Unresolved(); len(got) != 1 || got[0] != "{{SPLIT_FIELD}}" {
		t.Fatalf("Unresolved = %v", got)
	}

	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	xmlOut := readPart(t, out, documentPart)
	if !strings.Contains(xmlOut, "Ana &lt;B&gt; Cruz") {
		t.Fatalf("replacement was not escaped: %s", xmlOut)
	}
	if !strings.Contains(xmlOut, "<w:rPr><w:b/></w:rPr>") {
		t.Fatalf("run properties were lost")
	}
	if _, err := Open(out); err != nil {
		t.Fatalf("output does not reopen: %v", err)
	}
}

func TestReplaceMarkerWithImage(t *testing.T) {
	d, err := Open(testTemplate(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	png := []byte("\x89PNG\r\n\x1a\nfake")
	ok, err := d.ReplaceMarkerWithImage("[QR CODE SPACE]", png, 3*EMUPerInch/2, 3*EMUPerInch/2)
	if err != nil || !ok {
		t.Fatalf("ReplaceMarkerWithImage = %v, %v", ok, err)
	}
	if strings.Contains(d.Text(), "[QR CODE SPACE]") {
		t.Fatalf("marker still present")
	}
	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	xmlOut := readPart(t, out, documentPart)
	if !strings.Contains(xmlOut, `<w:jc w:val="right"/>`) || !strings.Contains(xmlOut, `cx="1371600"`) {
		t.Fatalf("picture paragraph not written: %s", xmlOut)
	}
	if strings.Contains(xmlOut, `<w:jc w:val="left"/>`) {
		t.Fatalf("marker paragraph was not cleared")
	}
	rels := readPart(t, out, relsPart)
	if !strings.Contains(rels, `Target="media/imtrack_image1.png"`) || !strings.Contains(rels, `Id="rId1"`) {
		t.Fatalf("relationship missing: %s", rels)
	}
	if ct := readPart(t, out, contentTypesPart); !strings.Contains(ct, `Extension="png"`) {
		t.Fatalf("png content type missing: %s", ct)
	}
	if media := readPart(t, out, "word/media/imtrack_image1.png"); media != string(png) {
		t.Fatalf("media bytes differ")
	}

	ok, err = d.ReplaceMarkerWithImage("[QR CODE SPACE]", png, 10, 10)
	if err != nil || ok {
		t.Fatalf("second replace = %v, %v; want false, nil", ok, err)
	}
}

func TestMarkerPrefersBodyOverTables(t *testing.T) {
	doc := strings.Replace(testDocumentXML, "<w:p/>", "<w:p><w:r><w:t>[QR CODE SPACE]</w:t></w:r></w:p>", 1)
	pkg := buildPackage(t, map[string]string{
		contentTypesPart: testContentTypes,
		relsPart:         testRels,
		documentPart:     doc,
	}, []string{contentTypesPart, relsPart, documentPart})
	d, err := Open(pkg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if ok, err := d.ReplaceMarkerWithImage("[QR CODE SPACE]", []byte("png"), 5, 5); err != nil || !ok {
		t.Fatalf("replace = %v, %v", ok, err)
	}
	// The table copy remains because the body paragraph matched first.
	if !strings.Contains(d.Text(), "[QR CODE SPACE]") {
		t.Fatalf("table marker should be untouched")
	}
	out, _ := d.Bytes()
	xmlOut := readPart(t, out, documentPart)
	if strings.Index(xmlOut, "<w:drawing>") < strings.Index(xmlOut, "</w:tbl>") {
		t.Fatalf("image inserted inside the table")
	}
}

func TestOpenRejectsNonDocx(t *testing.T) {
	if _, err := Open([]byte("plain")); err == nil {
		t.Fatalf("expected error for non-zip")
	}
	pkg := buildPackage(t, map[string]string{"a.txt": "x"}, []string{"a.txt"})
	if _, err := Open(pkg); err == nil {
		t.Fatalf("expected error for zip without document part")
	}
}

func TestReplaceMarkerValidatesInput(t *testing.T) {
	d, err := Open(testTemplate(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := d.ReplaceMarkerWithImage("", []byte("x"), 1, 1); err == nil {
		t.Fatalf("expected error for empty marker")
	}
	if _, err := d.ReplaceMarkerWithImage("[QR CODE SPACE]", nil, 1, 1); err == nil {
		t.Fatalf("expected error for empty image")
	}
	if _, err := d.ReplaceMarkerWithImage("[QR CODE SPACE]", []byte("x"), 0, 1); err == nil {
		t.Fatalf("expected error for zero extent")
	}
}
