package materials

import (
	"errors"
	"testing"
)

func fullScores(v int) map[string]int {
	out := map[string]int{}
	for _, k := range ScoreKeys() {
		out[k] = v
	}
	return out
}

func TestScoreKeysFollowForm(t *testing.T) {
	keys := ScoreKeys()
	if len(keys) != 22 {
		t.Fatalf("len(ScoreKeys) = %d, want 22", len(keys))
	}
	if keys[0] != "a1" || keys[6] != "c1" || keys[15] != "c10" || keys[21] != "e3" {
		t.Fatalf("unexpected order: %v", keys)
	}
}

func TestSetScoresDerivesSubtotals(t *testing.T) {
	var s EvaluationScores
	if err := s.Apply(fullScores(2)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	s.C10 = 5

	e := &Evaluation{}
	e.SetScores(s)
	want := EvaluationSubtotals{A: 6, B: 6, C: 23, D: 6, E: 6, Total: 47}
	if e.Subtotals != want {
		t.Fatalf("Subtotals = %+v, want %+v", e.Subtotals, want)
	}
}

func TestUpdateScoresAlwaysRecomputes(t *testing.T) {
	e := &Evaluation{}
	var s EvaluationScores
	if err := s.Apply(fullScores(1)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	e.SetScores(s)
	// A stale stored total must not survive an update.
	e.Subtotals.Total = 999

	if err := e.UpdateScores(map[string]int{"A1": 4, "e3": 0}); err != nil {
		t.Fatalf("UpdateScores: %v", err)
	}
	want := EvaluationSubtotals{A: 6, B: 3, C: 10, D: 3, E: 2, Total: 24}
	if e.Subtotals != want {
		t.Fatalf("Subtotals = %+v, want %+v", e.Subtotals, want)
	}
	if e.Scores.A1 != 4 || e.Scores.E3 != 0 {
		t.Fatalf("scores not applied: %+v", e.Scores)
	}

	// An empty update still recomputes from the stored scores.
	e.Subtotals = EvaluationSubtotals{}
	if err := e.UpdateScores(nil); err != nil {
		t.Fatalf("UpdateScores(nil): %v", err)
	}
	if e.Subtotals != want {
		t.Fatalf("Subtotals after empty update = %+v", e.Subtotals)
	}
}

func TestUpdateScoresRejectsBadInputAtomically(t *testing.T) {
	e := &Evaluation{}
	e.SetScores(EvaluationScores{A1: 1})

	for _, in := range []map[string]int{
		{"a1": 3, "z9": 1},
		{"a1": 3, "b2": -1},
	} {
		err := e.UpdateScores(in)
		var se *ScoreError
		if !errors.As(err, &se) {
			t.Fatalf("UpdateScores(%v) error = %v, want *ScoreError", in, err)
		}
		if e.Scores.A1 != 1 || e.Subtotals.Total != 1 {
			t.Fatalf("rejected update leaked: %+v %+v", e.Scores, e.Subtotals)
		}
	}
}

func TestMissingKeys(t *testing.T) {
	in := fullScores(1)
	delete(in, "c4")
	delete(in, "e1")
	got := MissingKeys(in)
	if len(got) != 2 || got[0] != "c4" || got[1] != "e1" {
		t.Fatalf("MissingKeys = %v", got)
	}
}

func TestCommentsApply(t *testing.T) {
	var c EvaluationComments
	if err := c.Apply(map[string]string{"a": "clear", "Overall": "good"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if c.A != "clear" || c.Overall != "good" {
		t.Fatalf("comments = %+v", c)
	}
	if err := c.Apply(map[string]string{"f": "x"}); err == nil {
		t.Fatalf("expected error for unknown section")
	}
}
