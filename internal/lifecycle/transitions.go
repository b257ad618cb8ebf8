package lifecycle

import "fmt"

// Policy decides what happens to a jump that is not in the transition table.
type Policy string

const (
	// PolicyPermissive accepts out-of-table jumps and flags them in the Outcome.
	PolicyPermissive Policy = "permissive"
	// PolicyStrict rejects out-of-table jumps with a *TransitionError.
	PolicyStrict Policy = "strict"
)

func ParsePolicy(raw string) (Policy, error) {
	switch Policy(normalizeLabel(raw)) {
	case "", PolicyPermissive:
		return PolicyPermissive, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown lifecycle policy %q", raw)
	}
}

// TransitionError is returned under PolicyStrict for a jump outside the table.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q -> %q is not part of the review pipeline", e.From, e.To)
}

// reviewStages may send a material back for resubmission.
var reviewStages = []Status{
	StatusDepartmentChecking,
	StatusSubjectAreaChecking,
	StatusUTLDOChecking,
	StatusIMEREvaluation,
	StatusUTLDOEvaluation,
	StatusEvaluatorEvaluation,
	StatusUTLDOApproval,
}

// TransitionTable holds the allowed (from, to) pairs.
type TransitionTable map[Status]map[Status]bool

// DefaultTransitions is the review pipeline:
// forward one stage at a time, any review stage back to resubmission,
// resubmission back into any review stage, and a published material
// re-entering review for its next revision.
func DefaultTransitions() TransitionTable {
	t := TransitionTable{}
	allow := func(from, to Status) {
		if t[from] == nil {
			t[from] = map[Status]bool{}
		}
		t[from][to] = true
	}
	forward := []Status{
		StatusAssignedToFaculty,
		StatusDepartmentChecking,
		StatusSubjectAreaChecking,
		StatusUTLDOChecking,
		StatusIMEREvaluation,
		StatusUTLDOEvaluation,
		StatusEvaluatorEvaluation,
		StatusUTLDOApproval,
		StatusForCertification,
		StatusCertified,
		StatusPublished,
	}
	for i := 0; i+1 < len(forward); i++ {
		allow(forward[i], forward[i+1])
	}
	for _, s := range reviewStages {
		allow(s, StatusResubmission)
		allow(StatusResubmission, s)
	}
	allow(StatusPublished, StatusDepartmentChecking)
	allow(StatusPublished, StatusResubmission)
	return t
}

// Allowed reports whether from -> to is in the table. Staying in the same
// status is always allowed.
func (t TransitionTable) Allowed(from, to Status) bool {
	if from == to {
		return true
	}
	return t[from][to]
}
