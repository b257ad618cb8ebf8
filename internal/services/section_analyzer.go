package services

import (
	"context"
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/textextract"
)

const (
	sectionsCompleteMessage = "All required sections are present"
	sectionsMissingPrefix   = "Missing sections: "
	sectionsFileNotFound    = "PDF file not found for analysis"
	sectionsErrorPrefix     = "Error processing PDF: "
)

type RequiredSection struct {
	Name     string
	Variants []string
}

// RequiredSections is checked in this order and reported in this order.
var RequiredSections = []RequiredSection{
	{Name: "The VMGOP", Variants: []string{"The VMGOP", "VMGOP"}},
	{Name: "Preface", Variants: []string{"Preface"}},
	{Name: "Table of Contents", Variants: []string{"Table of Contents", "Contents"}},
	{Name: "The OBE Course Syllabi", Variants: []string{"The OBE Course Syllabi", "OBE Course Syllabi", "Course Syllabus"}},
	{Name: "References", Variants: []string{"References", "References List", "Reference List"}},
}

type SectionReport struct {
	Present []string `json:"present"`
	Missing []string `json:"missing"`
}

func (r SectionReport) Complete() bool { return len(r.Missing) == 0 }

// Message is the advisory text stored in a material's notes.
func (r SectionReport) Message() string {
	if r.Complete() {
		return sectionsCompleteMessage
	}
	return sectionsMissingPrefix + strings.Join(r.Missing, ", ")
}

type SectionAnalyzer interface {
	// Analyze never fails; unreadable documents produce a diagnostic message.
	Analyze(ctx context.Context, path string) string
	AnalyzeText(text string) string
	Inspect(text string) SectionReport
}

type compiledSection struct {
	name     string
	patterns []*regexp.Regexp
}

type sectionAnalyzer struct {
	log      *logger.Logger
	sections []compiledSection
}

func NewSectionAnalyzer(baseLog *logger.Logger) SectionAnalyzer {
	return &sectionAnalyzer{
		log:      baseLog.With("service", "SectionAnalyzer"),
		sections: compileSections(RequiredSections),
	}
}

func compileSections(reqs []RequiredSection) []compiledSection {
	out := make([]compiledSection, 0, len(reqs))
	for _, r := range reqs {
		cs := compiledSection{name: r.Name}
		for _, v := range r.Variants {
			cs.patterns = append(cs.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(v)+`\b`))
		}
		out = append(out, cs)
	}
	return out
}

func (s *sectionAnalyzer) Analyze(ctx context.Context, path string) string {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sectionsFileNotFound
		}
		return sectionsErrorPrefix + err.Error()
	}
	if err := ctx.Err(); err != nil {
		return sectionsErrorPrefix + err.Error()
	}
	text, err := textextract.ExtractFile(path)
	if err != nil {
		s.log.Warn("Section analysis could not read document", "path", path, "error", err)
		return sectionsErrorPrefix + err.Error()
	}
	return s.AnalyzeText(text)
}

func (s *sectionAnalyzer) AnalyzeText(text string) string {
	return s.Inspect(text).Message()
}

func (s *sectionAnalyzer) Inspect(text string) SectionReport {
	text = textextract.CollapseWhitespace(text)
	rep := SectionReport{Present: []string{}, Missing: []string{}}
	for _, sec := range s.sections {
		found := false
		for _, re := range sec.patterns {
			if re.MatchString(text) {
				found = true
				break
			}
		}
		if found {
			rep.Present = append(rep.Present, sec.name)
		} else {
			rep.Missing = append(rep.Missing, sec.name)
		}
	}
	return rep
}
