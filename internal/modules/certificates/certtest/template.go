// Package certtest builds minimal certificate templates for tests.
package certtest

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>
<w:p><w:r><w:t>{{COLLEGE_NAME}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">This certifies that {{AUTHOR_RANK}} {{AUTHOR_NAME}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">submitted {{COURSE_CODE}}: {{COURSE_TITLE}} for {{PROGRAM_NAME}}</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t xml:space="preserve">{{SEMESTER}}, AY {{ACADEMIC_YEAR}}. Issued {{DATE_ISSUED}}</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>[QR CODE SPACE]</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:sectPr/></w:body></w:document>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

// Template returns a DOCX carrying every merge field and the QR marker.
func Template(tb testing.TB) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"word/_rels/document.xml.rels", relsXML},
		{"word/document.xml", documentXML},
	} {
		w, err := zw.Create(part.name)
		if err != nil {
			tb.Fatalf("create %s: %v", part.name, err)
		}
		if _, err := io.WriteString(w, part.body); err != nil {
			tb.Fatalf("write %s: %v", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close template: %v", err)
	}
	return buf.Bytes()
}
