package subscription

import (
	"fmt"
	"time"
)

// QuietHours is a per-subscription local time window during which non-urgent
// delivery is suppressed. Overnight windows (start after end) wrap past
// midnight.
type QuietHours struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time,omitempty"` // HH:MM
	EndTime   string `json:"end_time,omitempty"`   // HH:MM
	Timezone  string `json:"timezone,omitempty"`   // IANA name, defaults to UTC
}

func (q QuietHours) validate() error {
	if !q.Enabled {
		return nil
	}
	if _, err := parseMinuteOfDay(q.StartTime); err != nil {
		return err
	}
	if _, err := parseMinuteOfDay(q.EndTime); err != nil {
		return err
	}
	if q.Timezone != "" {
		if _, err := time.LoadLocation(q.Timezone); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, q.Timezone)
		}
	}
	return nil
}

// Contains reports whether the given instant falls inside the window,
// evaluated in the window's timezone.
func (q QuietHours) Contains(now time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err := parseMinuteOfDay(q.StartTime)
	if err != nil {
		return false
	}
	end, err := parseMinuteOfDay(q.EndTime)
	if err != nil {
		return false
	}

	loc := time.UTC
	if q.Timezone != "" {
		if l, err := time.LoadLocation(q.Timezone); err == nil {
			loc = l
		}
	}
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()

	if start <= end {
		return minute >= start && minute <= end
	}
	// Overnight window, e.g. 22:00 to 07:00.
	return minute >= start || minute <= end
}

func parseMinuteOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
