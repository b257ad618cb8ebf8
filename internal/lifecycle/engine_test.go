package lifecycle

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/pkg/pointers"
)

type fakeRecord struct {
	status   Status
	counters Counters
	version  string
	sets     int
}

func (r *fakeRecord) LifecycleStatus() Status     { return r.status }
func (r *fakeRecord) LifecycleCounters() Counters { return r.counters }
func (r *fakeRecord) SetLifecycle(s Status, c Counters, v string) {
	r.status, r.counters, r.version = s, c, v
	r.sets++
}

func newRecord(s Status, c Counters) *fakeRecord {
	return &fakeRecord{status: s, counters: c, version: c.Version()}
}

func TestVersionTracksCountersAcrossRandomSequences(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 50; run++ {
		rec := newRecord(StatusAssignedToFaculty, Counters{})
		for step := 0; step < 40; step++ {
			upd := Update{FileReplaced: rng.Intn(3) == 0}
			if rng.Intn(4) != 0 {
				upd.NewStatus = pointers.Ptr(Pipeline[rng.Intn(len(Pipeline))])
			}
			before := rec.counters
			out, err := eng.Apply(rec, upd)
			if err != nil {
				t.Fatalf("run %d step %d: unexpected error: %v", run, step, err)
			}
			if rec.version != fmt.Sprintf("%d.%d.%d.%d", rec.counters.Published, rec.counters.UTLDOAttempt, rec.counters.PIMECAttempt, rec.counters.AIAttempt) {
				t.Fatalf("run %d step %d: version %q out of sync with %+v", run, step, rec.version, rec.counters)
			}
			if err := CheckConsistency(rec.version, rec.counters); err != nil {
				t.Fatalf("run %d step %d: %v", run, step, err)
			}
			total := func(c Counters) int { return c.Published + c.UTLDOAttempt + c.PIMECAttempt + c.AIAttempt }
			if out.Incremented && out.Counter != CounterPublished && total(rec.counters) != total(before)+1 {
				t.Fatalf("run %d step %d: expected exactly one increment, %+v -> %+v", run, step, before, rec.counters)
			}
			if !out.Incremented && rec.counters != before {
				t.Fatalf("run %d step %d: counters changed without increment", run, step)
			}
		}
	}
}

func TestPublishedResetsStageCounters(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	for _, from := range Pipeline {
		rec := newRecord(from, Counters{Published: 2, UTLDOAttempt: 3, PIMECAttempt: 1, AIAttempt: 4})
		out, err := eng.ApplyStatusTransition(rec, StatusPublished)
		if err != nil {
			t.Fatalf("from %q: %v", from, err)
		}
		want := Counters{Published: 3}
		if rec.counters != want {
			t.Fatalf("from %q: counters = %+v, want %+v", from, rec.counters, want)
		}
		if rec.status != StatusPublished || rec.version != "3.0.0.0" {
			t.Fatalf("from %q: status=%q version=%q", from, rec.status, rec.version)
		}
		if out.Rule != RulePublished || !out.Incremented {
			t.Fatalf("from %q: outcome %+v", from, out)
		}
	}
}

func TestSameTrackedStatusIncrementsOnce(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	cases := []struct {
		status Status
		field  func(Counters) int
	}{
		{StatusUTLDOEvaluation, func(c Counters) int { return c.UTLDOAttempt }},
		{StatusEvaluatorEvaluation, func(c Counters) int { return c.PIMECAttempt }},
		{StatusResubmission, func(c Counters) int { return c.AIAttempt }},
	}
	for _, tc := range cases {
		for _, fileReplaced := range []bool{false, true} {
			rec := newRecord(tc.status, Counters{UTLDOAttempt: 1, PIMECAttempt: 1, AIAttempt: 1})
			out, err := eng.Apply(rec, Update{NewStatus: pointers.Ptr(tc.status), FileReplaced: fileReplaced})
			if err != nil {
				t.Fatalf("%q: %v", tc.status, err)
			}
			if got := tc.field(rec.counters); got != 2 {
				t.Fatalf("%q file=%v: counter = %d, want 2", tc.status, fileReplaced, got)
			}
			if out.StatusChanged {
				t.Fatalf("%q: status reported as changed", tc.status)
			}
		}
	}
}

func TestFileReplacementIncrementsCurrentTrackedStatus(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	rec := newRecord(StatusEvaluatorEvaluation, Counters{PIMECAttempt: 1})
	out, err := eng.Apply(rec, Update{FileReplaced: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.counters.PIMECAttempt != 2 || out.Rule != RuleFileReplaced {
		t.Fatalf("counters=%+v outcome=%+v", rec.counters, out)
	}
	if rec.version != "0.0.2.0" {
		t.Fatalf("version = %q", rec.version)
	}
}

func TestFileReplacementOnUntrackedStatusIsNoop(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	rec := newRecord(StatusDepartmentChecking, Counters{UTLDOAttempt: 1})
	out, err := eng.Apply(rec, Update{FileReplaced: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Incremented || rec.counters != (Counters{UTLDOAttempt: 1}) {
		t.Fatalf("expected no increment, got %+v / %+v", out, rec.counters)
	}
}

func TestStatusChangeWithFileIncrementsOnlyTarget(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	rec := newRecord(StatusUTLDOEvaluation, Counters{UTLDOAttempt: 1})
	out, err := eng.Apply(rec, Update{NewStatus: pointers.Ptr(StatusEvaluatorEvaluation), FileReplaced: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Counters{UTLDOAttempt: 1, PIMECAttempt: 1}
	if rec.counters != want {
		t.Fatalf("counters = %+v, want %+v", rec.counters, want)
	}
	if out.Rule != RuleStatusChange || !out.StatusChanged {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestSetLifecycleCalledOncePerApply(t *testing.T) {
	eng := NewEngine(PolicyPermissive, nil)
	rec := newRecord(StatusAssignedToFaculty, Counters{})
	if _, err := eng.ApplyStatusTransition(rec, StatusDepartmentChecking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.sets != 1 {
		t.Fatalf("SetLifecycle called %d times", rec.sets)
	}
}

func TestPolicyOnOutOfTableJump(t *testing.T) {
	rec := newRecord(StatusAssignedToFaculty, Counters{})
	out, err := NewEngine(PolicyPermissive, nil).ApplyStatusTransition(rec, StatusIMEREvaluation)
	if err != nil {
		t.Fatalf("permissive: %v", err)
	}
	if !out.Flagged || rec.status != StatusIMEREvaluation {
		t.Fatalf("permissive: expected flagged jump, got %+v", out)
	}

	rec = newRecord(StatusAssignedToFaculty, Counters{})
	_, err = NewEngine(PolicyStrict, nil).ApplyStatusTransition(rec, StatusPublished)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("strict: expected TransitionError, got %v", err)
	}
	if rec.status != StatusAssignedToFaculty || rec.sets != 0 {
		t.Fatalf("strict: record mutated on rejection")
	}
}

func TestStrictAllowsPipelineEdges(t *testing.T) {
	eng := NewEngine(PolicyStrict, nil)
	rec := newRecord(StatusAssignedToFaculty, Counters{})
	path := []Status{
		StatusDepartmentChecking,
		StatusSubjectAreaChecking,
		StatusUTLDOChecking,
		StatusIMEREvaluation,
		StatusUTLDOEvaluation,
		StatusResubmission,
		StatusUTLDOEvaluation,
		StatusEvaluatorEvaluation,
		StatusUTLDOApproval,
		StatusForCertification,
		StatusCertified,
		StatusPublished,
	}
	for _, s := range path {
		if _, err := eng.ApplyStatusTransition(rec, s); err != nil {
			t.Fatalf("-> %q: %v", s, err)
		}
	}
	if rec.version != "1.0.0.0" {
		t.Fatalf("version = %q", rec.version)
	}
}

func TestApplyRejectsUnknownStatus(t *testing.T) {
	rec := newRecord(StatusAssignedToFaculty, Counters{})
	_, err := NewEngine(PolicyPermissive, nil).ApplyStatusTransition(rec, Status("Archived"))
	var ue *UnknownStatusError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownStatusError, got %v", err)
	}
}

func TestApplyRejectsNegativeCounters(t *testing.T) {
	rec := newRecord(StatusUTLDOEvaluation, Counters{AIAttempt: -1})
	_, err := NewEngine(PolicyPermissive, nil).Apply(rec, Update{FileReplaced: true})
	var ie *InvariantError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
}

func TestRecomputeAndConsistency(t *testing.T) {
	rec := &fakeRecord{status: StatusResubmission, counters: Counters{Published: 1, AIAttempt: 2}, version: "9.9.9.9"}
	if err := CheckConsistency(rec.version, rec.counters); err == nil {
		t.Fatalf("expected inconsistency")
	}
	if v := Recompute(rec); v != "1.0.0.2" || rec.version != v {
		t.Fatalf("Recompute = %q, stored %q", v, rec.version)
	}
}

func TestInitialCounters(t *testing.T) {
	cases := map[Status]string{
		StatusAssignedToFaculty:   "0.0.0.0",
		StatusDepartmentChecking:  "0.0.0.0",
		StatusUTLDOEvaluation:     "0.1.0.0",
		StatusEvaluatorEvaluation: "0.0.1.0",
		StatusResubmission:        "0.0.0.1",
		StatusPublished:           "1.0.0.0",
	}
	for s, want := range cases {
		if got := InitialCounters(s).Version(); got != want {
			t.Fatalf("InitialCounters(%q) = %q, want %q", s, got, want)
		}
	}
}
