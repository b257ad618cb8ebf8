package lifecycle

import (
	"fmt"
	"strings"
)

// Status is a review pipeline stage of an instructional material.
type Status string

const (
	StatusAssignedToFaculty   Status = "Assigned to Faculty"
	StatusDepartmentChecking  Status = "For Department Checking"
	StatusSubjectAreaChecking Status = "For Subject Area Checking"
	StatusUTLDOChecking       Status = "For UTLDO Checking"
	StatusIMEREvaluation      Status = "For IMER Evaluation"
	StatusUTLDOEvaluation     Status = "For UTLDO Evaluation"
	StatusEvaluatorEvaluation Status = "For Evaluator Evaluation"
	StatusResubmission        Status = "For Resubmission"
	StatusUTLDOApproval       Status = "For UTLDO Approval"
	StatusForCertification    Status = "For Certification"
	StatusCertified           Status = "Certified"
	StatusPublished           Status = "Published"
)

// Pipeline lists every status in workflow order.
var Pipeline = []Status{
	StatusAssignedToFaculty,
	StatusDepartmentChecking,
	StatusSubjectAreaChecking,
	StatusUTLDOChecking,
	StatusIMEREvaluation,
	StatusUTLDOEvaluation,
	StatusEvaluatorEvaluation,
	StatusResubmission,
	StatusUTLDOApproval,
	StatusForCertification,
	StatusCertified,
	StatusPublished,
}

var statusByLabel = func() map[string]Status {
	m := make(map[string]Status, len(Pipeline)+3)
	for _, s := range Pipeline {
		m[normalizeLabel(string(s))] = s
	}
	// Labels still found in older records and clients.
	m["for pimec evaluation"] = StatusEvaluatorEvaluation
	m["for resubmittion"] = StatusResubmission
	return m
}()

func normalizeLabel(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// UnknownStatusError is returned for labels outside the pipeline.
type UnknownStatusError struct {
	Label string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status %q", e.Label)
}

// ParseStatus maps a client label onto a Status, ignoring case and spacing.
func ParseStatus(raw string) (Status, error) {
	if s, ok := statusByLabel[normalizeLabel(raw)]; ok {
		return s, nil
	}
	return "", &UnknownStatusError{Label: raw}
}

// Valid reports whether s is one of the canonical pipeline statuses.
func (s Status) Valid() bool {
	for _, p := range Pipeline {
		if p == s {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// CounterKind names one of the four stage attempt counters.
type CounterKind string

const (
	CounterNone      CounterKind = ""
	CounterPublished CounterKind = "published"
	CounterUTLDO     CounterKind = "utldo_attempt"
	CounterPIMEC     CounterKind = "pimec_attempt"
	CounterAI        CounterKind = "ai_attempt"
)

// Counter reports which attempt counter a status feeds. Published is handled
// separately because it resets the others.
func (s Status) Counter() CounterKind {
	switch s {
	case StatusUTLDOEvaluation:
		return CounterUTLDO
	case StatusEvaluatorEvaluation:
		return CounterPIMEC
	case StatusResubmission:
		return CounterAI
	case StatusPublished:
		return CounterPublished
	default:
		return CounterNone
	}
}

// Tracked reports whether re-entering s counts as another attempt.
func (s Status) Tracked() bool {
	switch s.Counter() {
	case CounterUTLDO, CounterPIMEC, CounterAI:
		return true
	default:
		return false
	}
}
