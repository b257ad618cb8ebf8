package materials

import (
	"errors"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/lifecycle"
)

func TestSetCurriculumKeepsExactlyOneReference(t *testing.T) {
	m := &InstructionalMaterial{}
	if err := m.SetCurriculum(UniversityCurriculum(4)); err != nil {
		t.Fatalf("SetCurriculum: %v", err)
	}
	if err := m.SetCurriculum(ServiceCurriculum(9)); err != nil {
		t.Fatalf("SetCurriculum: %v", err)
	}
	if m.UniversityCurriculumID != nil || m.ServiceCurriculumID == nil || *m.ServiceCurriculumID != 9 {
		t.Fatalf("unexpected refs uni=%v svc=%v", m.UniversityCurriculumID, m.ServiceCurriculumID)
	}
	if m.IMType != CurriculumService {
		t.Fatalf("IMType = %q", m.IMType)
	}
	ref, err := m.Curriculum()
	if err != nil || ref.Kind() != CurriculumService || ref.ID() != 9 {
		t.Fatalf("Curriculum() = %+v, %v", ref, err)
	}
}

func TestCurriculumRejectsBrokenRows(t *testing.T) {
	a, b := uint(1), uint(2)
	cases := []*InstructionalMaterial{
		{},
		{UniversityCurriculumID: &a, ServiceCurriculumID: &b},
	}
	for i, m := range cases {
		_, err := m.Curriculum()
		var ie *lifecycle.InvariantError
		if !errors.As(err, &ie) {
			t.Fatalf("case %d: expected InvariantError, got %v", i, err)
		}
	}
	if err := (&InstructionalMaterial{}).SetCurriculum(CurriculumRef{}); err == nil {
		t.Fatalf("expected error for empty ref")
	}
}

func TestSetLifecycleWritesCountersAndVersion(t *testing.T) {
	m := &InstructionalMaterial{Status: lifecycle.StatusUTLDOEvaluation, UTLDOAttempt: 1, Version: "0.1.0.0"}
	eng := lifecycle.NewEngine(lifecycle.PolicyPermissive, nil)
	if _, err := eng.ApplyStatusTransition(m, lifecycle.StatusEvaluatorEvaluation); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m.Version != "0.1.1.0" || m.PIMECAttempt != 1 || m.Status != lifecycle.StatusEvaluatorEvaluation {
		t.Fatalf("unexpected material %+v", m)
	}
}

func TestVerificationIDFor(t *testing.T) {
	if got := VerificationIDFor(42); got != "CERT-42" {
		t.Fatalf("VerificationIDFor(42) = %q", got)
	}
	c := &Certificate{}
	if c.Code() != "" {
		t.Fatalf("stub certificate should have empty code")
	}
}
