package notification

import (
	"fmt"
	"time"
)

// Priority is the urgency tier of a notification. The tiers are totally
// ordered (low < normal < high < urgent) and each fixes the delivery timeout,
// the retry ceiling, and the numeric rank used for channel scoring.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority converts a string into a Priority, failing fast on unknown
// values.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Valid reports whether the priority is one of the known tiers.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank returns the numeric rank of the priority, 1 (low) through 4 (urgent).
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	default:
		return 1
	}
}

// Before reports whether p is strictly less urgent than other.
func (p Priority) Before(other Priority) bool {
	return p.Rank() < other.Rank()
}

// DeliveryTimeout returns the overall time budget for delivering a
// notification at this priority. More urgent tiers get a tighter budget.
func (p Priority) DeliveryTimeout() time.Duration {
	switch p {
	case PriorityUrgent:
		return 30 * time.Second
	case PriorityHigh:
		return 5 * time.Minute
	case PriorityNormal:
		return 30 * time.Minute
	default:
		return 2 * time.Hour
	}
}

// MaxRetries returns the retry ceiling for this priority.
func (p Priority) MaxRetries() int {
	switch p {
	case PriorityUrgent:
		return 5
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	default:
		return 1
	}
}

func (p Priority) String() string {
	return string(p)
}
