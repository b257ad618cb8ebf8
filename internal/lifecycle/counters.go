package lifecycle

import "fmt"

// Counters are the per-stage attempt counters of a material.
type Counters struct {
	Published    int
	UTLDOAttempt int
	PIMECAttempt int
	AIAttempt    int
}

// Version renders the composite "{published}.{utldo}.{pimec}.{ai}" identifier.
func (c Counters) Version() string {
	return fmt.Sprintf("%d.%d.%d.%d", c.Published, c.UTLDOAttempt, c.PIMECAttempt, c.AIAttempt)
}

// Get returns the value of one counter.
func (c Counters) Get(kind CounterKind) int {
	switch kind {
	case CounterPublished:
		return c.Published
	case CounterUTLDO:
		return c.UTLDOAttempt
	case CounterPIMEC:
		return c.PIMECAttempt
	case CounterAI:
		return c.AIAttempt
	default:
		return 0
	}
}

// bump applies one increment for kind. Publishing resets the stage counters.
func (c Counters) bump(kind CounterKind) Counters {
	switch kind {
	case CounterPublished:
		return Counters{Published: c.Published + 1}
	case CounterUTLDO:
		c.UTLDOAttempt++
	case CounterPIMEC:
		c.PIMECAttempt++
	case CounterAI:
		c.AIAttempt++
	}
	return c
}

func (c Counters) validate() error {
	if c.Published < 0 || c.UTLDOAttempt < 0 || c.PIMECAttempt < 0 || c.AIAttempt < 0 {
		return &InvariantError{Reason: fmt.Sprintf("negative counter in %s", c.Version())}
	}
	return nil
}

// InitialCounters returns the counters for a record created directly in status.
func InitialCounters(status Status) Counters {
	return Counters{}.bump(status.Counter())
}

// InvariantError reports stored lifecycle state that could not have been
// produced by the engine.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "lifecycle invariant violated: " + e.Reason
}
