package lifecycle

// Record is the lifecycle view of an instructional material. SetLifecycle is
// the only mutator so status, counters and version always move together.
type Record interface {
	LifecycleStatus() Status
	LifecycleCounters() Counters
	SetLifecycle(status Status, counters Counters, version string)
}

// Update describes one update call against a record.
type Update struct {
	// NewStatus is nil when the call does not carry a status.
	NewStatus *Status
	// FileReplaced is set when a new primary document with a different
	// storage key is attached.
	FileReplaced bool
}

// Rule identifies which rule produced the increment of an Apply call.
type Rule string

const (
	RuleNone          Rule = "none"
	RulePublished     Rule = "published"
	RuleStatusChange  Rule = "status_change"
	RuleFileReplaced  Rule = "file_replaced"
	RuleSameStatus    Rule = "same_status"
	RuleStatusNoCount Rule = "status_change_untracked"
)

// Outcome reports what Apply did.
type Outcome struct {
	From          Status
	To            Status
	StatusChanged bool
	Incremented   bool
	Counter       CounterKind
	Rule          Rule
	// Flagged is set when an out-of-table jump was accepted.
	Flagged bool
	Version string
}

type Engine struct {
	policy Policy
	table  TransitionTable
}

func NewEngine(policy Policy, table TransitionTable) *Engine {
	if policy == "" {
		policy = PolicyPermissive
	}
	if table == nil {
		table = DefaultTransitions()
	}
	return &Engine{policy: policy, table: table}
}

func (e *Engine) Policy() Policy { return e.policy }

// ApplyStatusTransition is Apply for a call that only carries a status.
func (e *Engine) ApplyStatusTransition(rec Record, newStatus Status) (Outcome, error) {
	return e.Apply(rec, Update{NewStatus: &newStatus})
}

// Apply mutates rec in place. At most one counter increment happens per call,
// evaluated in this order:
//  1. new status Published: published+1, other counters reset.
//  2. new status differs and is tracked: that counter +1.
//  3. status unchanged, file replaced, current status tracked: current +1.
//  4. new status equals current and is tracked: current +1.
//
// Apply never commits; the caller owns the transaction.
func (e *Engine) Apply(rec Record, upd Update) (Outcome, error) {
	from := rec.LifecycleStatus()
	counters := rec.LifecycleCounters()
	if err := counters.validate(); err != nil {
		return Outcome{}, err
	}

	out := Outcome{From: from, To: from, Rule: RuleNone}
	to := from
	incremented := false

	if upd.NewStatus != nil {
		to = *upd.NewStatus
		if !to.Valid() {
			return Outcome{}, &UnknownStatusError{Label: string(to)}
		}
		if !e.table.Allowed(from, to) {
			if e.policy == PolicyStrict {
				return Outcome{}, &TransitionError{From: from, To: to}
			}
			out.Flagged = true
		}
	}

	statusChanged := upd.NewStatus != nil && to != from

	switch {
	case upd.NewStatus != nil && to == StatusPublished:
		counters = counters.bump(CounterPublished)
		incremented = true
		out.Counter = CounterPublished
		out.Rule = RulePublished
	case statusChanged && to.Tracked():
		counters = counters.bump(to.Counter())
		incremented = true
		out.Counter = to.Counter()
		out.Rule = RuleStatusChange
	case statusChanged:
		out.Rule = RuleStatusNoCount
	}

	if !statusChanged && !incremented && upd.FileReplaced && from.Tracked() {
		counters = counters.bump(from.Counter())
		incremented = true
		out.Counter = from.Counter()
		out.Rule = RuleFileReplaced
	}

	if !statusChanged && !incremented && upd.NewStatus != nil && to == from && from.Tracked() {
		counters = counters.bump(from.Counter())
		incremented = true
		out.Counter = from.Counter()
		out.Rule = RuleSameStatus
	}

	out.To = to
	out.StatusChanged = statusChanged
	out.Incremented = incremented
	out.Version = counters.Version()
	rec.SetLifecycle(to, counters, out.Version)
	return out, nil
}

// Recompute rewrites the version of rec from its counters.
func Recompute(rec Record) string {
	c := rec.LifecycleCounters()
	v := c.Version()
	rec.SetLifecycle(rec.LifecycleStatus(), c, v)
	return v
}

// CheckConsistency fails when a stored version disagrees with its counters.
func CheckConsistency(version string, c Counters) error {
	if err := c.validate(); err != nil {
		return err
	}
	if version != c.Version() {
		return &InvariantError{Reason: "version " + version + " does not match counters " + c.Version()}
	}
	return nil
}
