package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Offsets below are byte positions in document.xml. Spans cover the whole
// element including its tags.

type textNode struct {
	start, end int
	text       string
}

type runNode struct {
	texts []int
}

type paraNode struct {
	start, end int
	inTable    bool
	runs       []int
}

type layout struct {
	paras []paraNode
	runs  []runNode
	texts []textNode
}

func scan(data []byte) (*layout, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	l := &layout{}
	var paraStack, runStack []int
	curText := -1
	var buf strings.Builder
	tblDepth := 0

	for {
		off := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}
		end := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != "w" {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "p":
				l.paras = append(l.paras, paraNode{start: off, end: end, inTable: tblDepth > 0})
				paraStack = append(paraStack, len(l.paras)-1)
			case "r":
				if len(paraStack) == 0 {
					continue
				}
				l.runs = append(l.runs, runNode{})
				ri := len(l.runs) - 1
				pi := paraStack[len(paraStack)-1]
				l.paras[pi].runs = append(l.paras[pi].runs, ri)
				runStack = append(runStack, ri)
			case "t":
				if len(runStack) == 0 {
					continue
				}
				l.texts = append(l.texts, textNode{start: off, end: end})
				curText = len(l.texts) - 1
				ri := runStack[len(runStack)-1]
				l.runs[ri].texts = append(l.runs[ri].texts, curText)
				buf.Reset()
			}
		case xml.EndElement:
			if t.Name.Space != "w" {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				if tblDepth > 0 {
					tblDepth--
				}
			case "p":
				if n := len(paraStack); n > 0 {
					l.paras[paraStack[n-1]].end = end
					paraStack = paraStack[:n-1]
				}
			case "r":
				if n := len(runStack); n > 0 {
					runStack = runStack[:n-1]
				}
			case "t":
				if curText >= 0 {
					l.texts[curText].end = end
					l.texts[curText].text = buf.String()
					curText = -1
				}
			}
		case xml.CharData:
			if curText >= 0 {
				buf.Write(t)
			}
		}
	}
	return l, nil
}

// ordered returns body paragraph indexes followed by table paragraph indexes.
func (l *layout) ordered() []int {
	out := make([]int, 0, len(l.paras))
	for i, p := range l.paras {
		if !p.inTable {
			out = append(out, i)
		}
	}
	for i, p := range l.paras {
		if p.inTable {
			out = append(out, i)
		}
	}
	return out
}

func (l *layout) paraText(pi int) string {
	var sb strings.Builder
	for _, ri := range l.paras[pi].runs {
		for _, ti := range l.runs[ri].texts {
			sb.WriteString(l.texts[ti].text)
		}
	}
	return sb.String()
}

type edit struct {
	start, end int
	repl       []byte
}

// applyEdits splices non-overlapping edits into data.
func applyEdits(data []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return data
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var out bytes.Buffer
	out.Grow(len(data))
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue
		}
		out.Write(data[pos:e.start])
		out.Write(e.repl)
		pos = e.end
	}
	out.Write(data[pos:])
	return out.Bytes()
}

func splice(data []byte, start, end int, repl []byte) []byte {
	return applyEdits(data, []edit{{start: start, end: end, repl: repl}})
}

func textElement(s string) []byte {
	var b bytes.Buffer
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(&b, []byte(s))
	b.WriteString(`</w:t>`)
	return b.Bytes()
}

func pictureParagraph(relID, name string, id int, cx, cy int64) []byte {
	return []byte(fmt.Sprintf(`<w:p><w:pPr><w:jc w:val="right"/></w:pPr><w:r><w:drawing>`+
		`<wp:inline xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[4]d" cy="%[5]d"/><wp:docPr id="%[3]d" name="Picture %[3]d"/>`+
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" noChangeAspect="1"/></wp:cNvGraphicFramePr>`+
		`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
		`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:nvPicPr><pic:cNvPr id="%[3]d" name="%[2]s"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" r:embed="%[1]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[4]d" cy="%[5]d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		relID, name, id, cx, cy))
}
