package materials

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EvaluationSection is one block of the IMER/PIMEC rubric.
type EvaluationSection struct {
	Key   string
	Items int
}

// EvaluationSections lists the rubric in form order.
var EvaluationSections = []EvaluationSection{
	{Key: "a", Items: 3},
	{Key: "b", Items: 3},
	{Key: "c", Items: 10},
	{Key: "d", Items: 3},
	{Key: "e", Items: 3},
}

// EvaluationScores holds every rubric item score. Items are addressed by
// their form key ("a1" .. "e3").
type EvaluationScores struct {
	A1  int `gorm:"column:a1;not null" json:"a1"`
	A2  int `gorm:"column:a2;not null" json:"a2"`
	A3  int `gorm:"column:a3;not null" json:"a3"`
	B1  int `gorm:"column:b1;not null" json:"b1"`
	B2  int `gorm:"column:b2;not null" json:"b2"`
	B3  int `gorm:"column:b3;not null" json:"b3"`
	C1  int `gorm:"column:c1;not null" json:"c1"`
	C2  int `gorm:"column:c2;not null" json:"c2"`
	C3  int `gorm:"column:c3;not null" json:"c3"`
	C4  int `gorm:"column:c4;not null" json:"c4"`
	C5  int `gorm:"column:c5;not null" json:"c5"`
	C6  int `gorm:"column:c6;not null" json:"c6"`
	C7  int `gorm:"column:c7;not null" json:"c7"`
	C8  int `gorm:"column:c8;not null" json:"c8"`
	C9  int `gorm:"column:c9;not null" json:"c9"`
	C10 int `gorm:"column:c10;not null" json:"c10"`
	D1  int `gorm:"column:d1;not null" json:"d1"`
	D2  int `gorm:"column:d2;not null" json:"d2"`
	D3  int `gorm:"column:d3;not null" json:"d3"`
	E1  int `gorm:"column:e1;not null" json:"e1"`
	E2  int `gorm:"column:e2;not null" json:"e2"`
	E3  int `gorm:"column:e3;not null" json:"e3"`
}

func (s *EvaluationScores) items() map[string]*int {
	return map[string]*int{
		"a1": &s.A1, "a2": &s.A2, "a3": &s.A3,
		"b1": &s.B1, "b2": &s.B2, "b3": &s.B3,
		"c1": &s.C1, "c2": &s.C2, "c3": &s.C3, "c4": &s.C4, "c5": &s.C5,
		"c6": &s.C6, "c7": &s.C7, "c8": &s.C8, "c9": &s.C9, "c10": &s.C10,
		"d1": &s.D1, "d2": &s.D2, "d3": &s.D3,
		"e1": &s.E1, "e2": &s.E2, "e3": &s.E3,
	}
}

// ScoreKeys returns every item key in form order.
func ScoreKeys() []string {
	out := make([]string, 0, 22)
	for _, sec := range EvaluationSections {
		for i := 1; i <= sec.Items; i++ {
			out = append(out, fmt.Sprintf("%s%d", sec.Key, i))
		}
	}
	return out
}

// ScoreError reports rubric input that cannot be applied.
type ScoreError struct {
	Key    string
	Reason string
}

func (e *ScoreError) Error() string {
	if e.Key == "" {
		return "evaluation: " + e.Reason
	}
	return fmt.Sprintf("evaluation item %q: %s", e.Key, e.Reason)
}

// Apply writes the given item scores. Keys are case-insensitive; unknown
// keys and negative scores are rejected before anything changes.
func (s *EvaluationScores) Apply(values map[string]int) error {
	items := s.items()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := items[strings.ToLower(strings.TrimSpace(k))]; !ok {
			return &ScoreError{Key: k, Reason: "unknown rubric item"}
		}
		if values[k] < 0 {
			return &ScoreError{Key: k, Reason: "score must not be negative"}
		}
	}
	for _, k := range keys {
		*items[strings.ToLower(strings.TrimSpace(k))] = values[k]
	}
	return nil
}

// MissingKeys lists the item keys absent from values, in form order.
func MissingKeys(values map[string]int) []string {
	have := make(map[string]bool, len(values))
	for k := range values {
		have[strings.ToLower(strings.TrimSpace(k))] = true
	}
	var out []string
	for _, k := range ScoreKeys() {
		if !have[k] {
			out = append(out, k)
		}
	}
	return out
}

// Subtotals is a pure function of the scores.
func (s EvaluationScores) Subtotals() EvaluationSubtotals {
	t := EvaluationSubtotals{
		A: s.A1 + s.A2 + s.A3,
		B: s.B1 + s.B2 + s.B3,
		C: s.C1 + s.C2 + s.C3 + s.C4 + s.C5 + s.C6 + s.C7 + s.C8 + s.C9 + s.C10,
		D: s.D1 + s.D2 + s.D3,
		E: s.E1 + s.E2 + s.E3,
	}
	t.Total = t.A + t.B + t.C + t.D + t.E
	return t
}

type EvaluationSubtotals struct {
	A     int `gorm:"column:a_subtotal;not null" json:"a_subtotal"`
	B     int `gorm:"column:b_subtotal;not null" json:"b_subtotal"`
	C     int `gorm:"column:c_subtotal;not null" json:"c_subtotal"`
	D     int `gorm:"column:d_subtotal;not null" json:"d_subtotal"`
	E     int `gorm:"column:e_subtotal;not null" json:"e_subtotal"`
	Total int `gorm:"column:total;not null" json:"total"`
}

type EvaluationComments struct {
	A       string `gorm:"column:a_comment;type:text" json:"a_comment"`
	B       string `gorm:"column:b_comment;type:text" json:"b_comment"`
	C       string `gorm:"column:c_comment;type:text" json:"c_comment"`
	D       string `gorm:"column:d_comment;type:text" json:"d_comment"`
	E       string `gorm:"column:e_comment;type:text" json:"e_comment"`
	Overall string `gorm:"column:overall_comment;type:text" json:"overall_comment"`
}

// Apply sets the comments named by section key ("a" .. "e", "overall").
func (c *EvaluationComments) Apply(values map[string]string) error {
	fields := map[string]*string{"a": &c.A, "b": &c.B, "c": &c.C, "d": &c.D, "e": &c.E, "overall": &c.Overall}
	for k := range values {
		if _, ok := fields[strings.ToLower(strings.TrimSpace(k))]; !ok {
			return &ScoreError{Key: k, Reason: "unknown comment section"}
		}
	}
	for k, v := range values {
		*fields[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return nil
}

// Evaluation is the IMER/PIMEC rubric filled in for a material.
type Evaluation struct {
	ID       uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	Scores   EvaluationScores   `gorm:"embedded" json:"scores"`
	Comments EvaluationComments `gorm:"embedded" json:"comments"`

	// Subtotals is derived from Scores; write it only through SetScores.
	Subtotals EvaluationSubtotals `gorm:"embedded" json:"subtotals"`

	CreatedBy string    `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"column:updated_by;not null" json:"updated_by"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false;index" json:"is_deleted"`
}

func (Evaluation) TableName() string { return "evaluation" }

// SetScores replaces the scores and recomputes every subtotal and the total.
func (e *Evaluation) SetScores(s EvaluationScores) {
	e.Scores = s
	e.Subtotals = s.Subtotals()
}

// UpdateScores applies a partial set of item scores on top of the current
// ones and recomputes the subtotals.
func (e *Evaluation) UpdateScores(values map[string]int) error {
	next := e.Scores
	if err := next.Apply(values); err != nil {
		return err
	}
	e.SetScores(next)
	return nil
}
