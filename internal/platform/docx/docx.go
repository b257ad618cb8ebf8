// Package docx edits WordprocessingML templates in place: merge placeholders
// inside runs and swap a marker paragraph for an inline picture. Everything
// else in the package is copied through byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

const (
	documentPart     = "word/document.xml"
	relsPart         = "word/_rels/document.xml.rels"
	contentTypesPart = "[Content_Types].xml"

	// EMUPerInch converts inches to drawing units.
	EMUPerInch int64 = 914400
)

var ErrNotDocx = errors.New("not a docx package")

var placeholderRe = regexp.MustCompile(`\{\{[A-Za-z0-9_]+\}\}`)

type Document struct {
	names   []string
	parts   map[string][]byte
	methods map[string]uint16
	images  int
}

func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(data)
}

func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}
	d := &Document{
		parts:   make(map[string][]byte, len(zr.File)),
		methods: make(map[string]uint16, len(zr.File)),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		d.names = append(d.names, f.Name)
		d.parts[f.Name] = b
		d.methods[f.Name] = f.Method
	}
	if _, ok := d.parts[documentPart]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, documentPart)
	}
	if _, err := scan(d.parts[documentPart]); err != nil {
		return nil, err
	}
	return d, nil
}

// ReplacePlaceholders rewrites every run whose text contains a key, body
// paragraphs first and table cells second. Matching is exact and case
// sensitive; text around a match is kept. All keys are replaced in a single
// pass over the original text, so a merged value is never matched again.
// It returns the number of replacements made.
func (d *Document) ReplacePlaceholders(values map[string]string) (int, error) {
	re := keysPattern(values)
	if re == nil {
		return 0, nil
	}
	l, err := scan(d.parts[documentPart])
	if err != nil {
		return 0, err
	}
	merge := func(s string) (string, int) {
		n := 0
		out := re.ReplaceAllStringFunc(s, func(k string) string {
			n++
			return values[k]
		})
		return out, n
	}

	var edits []edit
	count := 0
	for _, pi := range l.ordered() {
		for _, ri := range l.paras[pi].runs {
			run := l.runs[ri]
			if len(run.texts) == 0 {
				continue
			}
			orig := make([]string, len(run.texts))
			texts := make([]string, len(run.texts))
			hits := 0
			for i, ti := range run.texts {
				orig[i] = l.texts[ti].text
				var n int
				texts[i], n = merge(orig[i])
				hits += n
			}
			// A key split over several <w:t> of one run: fold the run into its first text.
			if joined, n := merge(strings.Join(orig, "")); n > hits {
				texts[0] = joined
				for i := 1; i < len(texts); i++ {
					texts[i] = ""
				}
				hits = n
			}
			if hits == 0 {
				continue
			}
			count += hits
			for i, ti := range run.texts {
				tn := l.texts[ti]
				edits = append(edits, edit{start: tn.start, end: tn.end, repl: textElement(texts[i])})
			}
		}
	}
	d.parts[documentPart] = applyEdits(d.parts[documentPart], edits)
	return count, nil
}

// keysPattern matches any key, longest first so a key that prefixes another
// never shadows it.
func keysPattern(values map[string]string) *regexp.Regexp {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(strings.Join(keys, "|"))
}

// Unresolved lists the {{FIELD}} tokens still present, in document order.
func (d *Document) Unresolved() []string {
	l, err := scan(d.parts[documentPart])
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for pi := range l.paras {
		for _, m := range placeholderRe.FindAllString(l.paraText(pi), -1) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// Text returns the paragraph texts in document order, one per line.
func (d *Document) Text() string {
	l, err := scan(d.parts[documentPart])
	if err != nil {
		return ""
	}
	lines := make([]string, 0, len(l.paras))
	for pi := range l.paras {
		lines = append(lines, l.paraText(pi))
	}
	return strings.Join(lines, "\n")
}

// ReplaceMarkerWithImage clears the first paragraph containing marker (body
// first, then tables) and fills it with a right-aligned inline PNG of the
// given size. It reports false when no paragraph holds the marker.
func (d *Document) ReplaceMarkerWithImage(marker string, png []byte, cx, cy int64) (bool, error) {
	if marker == "" {
		return false, fmt.Errorf("empty marker")
	}
	if len(png) == 0 {
		return false, fmt.Errorf("empty image")
	}
	if cx <= 0 || cy <= 0 {
		return false, fmt.Errorf("invalid image extent %dx%d", cx, cy)
	}
	l, err := scan(d.parts[documentPart])
	if err != nil {
		return false, err
	}
	for _, pi := range l.ordered() {
		if !strings.Contains(l.paraText(pi), marker) {
			continue
		}
		relID, target, err := d.addImage(png)
		if err != nil {
			return false, err
		}
		p := l.paras[pi]
		para := pictureParagraph(relID, target, 9000+d.images, cx, cy)
		d.parts[documentPart] = applyEdits(d.parts[documentPart], []edit{{start: p.start, end: p.end, repl: para}})
		return true, nil
	}
	return false, nil
}

// Bytes serializes the package keeping the original part order.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range d.names {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: d.methods[name]})
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", name, err)
		}
		if _, err := w.Write(d.parts[name]); err != nil {
			return nil, fmt.Errorf("write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) setPart(name string, data []byte) {
	if _, ok := d.parts[name]; !ok {
		d.names = append(d.names, name)
		d.methods[name] = zip.Deflate
	}
	d.parts[name] = data
}

func (d *Document) addImage(png []byte) (relID, target string, err error) {
	rels, ok := d.parts[relsPart]
	if !ok {
		rels = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)
	}
	for {
		d.images++
		relID = fmt.Sprintf("rIdImtrackImg%d", d.images)
		target = fmt.Sprintf("media/imtrack_image%d.png", d.images)
		if _, taken := d.parts["word/"+target]; taken {
			continue
		}
		if bytes.Contains(rels, []byte(`Id="`+relID+`"`)) {
			continue
		}
		break
	}
	closeTag := []byte("</Relationships>")
	idx := bytes.LastIndex(rels, closeTag)
	if idx < 0 {
		return "", "", fmt.Errorf("malformed %s", relsPart)
	}
	rel := fmt.Sprintf(`<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s"/>`, relID, target)
	d.setPart(relsPart, splice(rels, idx, idx, []byte(rel)))

	if ct, ok := d.parts[contentTypesPart]; ok && !bytes.Contains(bytes.ToLower(ct), []byte(`extension="png"`)) {
		end := []byte("</Types>")
		if i := bytes.LastIndex(ct, end); i >= 0 {
			d.setPart(contentTypesPart, splice(ct, i, i, []byte(`<Default Extension="png" ContentType="image/png"/>`)))
		}
	}
	d.setPart("word/"+target, png)
	return relID, target, nil
}
