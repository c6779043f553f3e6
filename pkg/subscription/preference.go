package subscription

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Frequency controls how often notifications reach a channel: immediately,
// or batched into a periodic digest.
type Frequency string

const (
	FrequencyImmediate     Frequency = "immediate"
	FrequencyDigestHourly  Frequency = "digest_hourly"
	FrequencyDigestDaily   Frequency = "digest_daily"
	FrequencyDigestWeekly  Frequency = "digest_weekly"
	FrequencyDigestMonthly Frequency = "digest_monthly"
)

// Valid reports whether the frequency is known.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyDigestHourly, FrequencyDigestDaily,
		FrequencyDigestWeekly, FrequencyDigestMonthly:
		return true
	}
	return false
}

// ChannelPreference is the per-channel delivery policy of a subscription.
type ChannelPreference struct {
	Enabled   bool           `json:"enabled"`
	Frequency Frequency      `json:"frequency"`
	Address   string         `json:"address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{6,14}$`)
)

// validatePreference checks a preference for a channel at write time so the
// delivery path never has to re-validate addresses.
func validatePreference(c notification.Channel, pref ChannelPreference) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", notification.ErrInvalidChannel, c)
	}
	if pref.Frequency == "" {
		pref.Frequency = FrequencyImmediate
	}
	if !pref.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, pref.Frequency)
	}

	caps := c.Capabilities()
	if !caps.RequiresAddress {
		return nil
	}
	if pref.Address == "" {
		if pref.Enabled {
			return fmt.Errorf("%w: %s", ErrAddressRequired, c)
		}
		return nil
	}
	return validateAddress(c, pref.Address)
}

func validateAddress(c notification.Channel, address string) error {
	switch c {
	case notification.ChannelEmail:
		if !emailPattern.MatchString(address) {
			return fmt.Errorf("%w: %q is not a valid email address", ErrInvalidAddress, address)
		}
	case notification.ChannelSMS:
		if !phonePattern.MatchString(address) {
			return fmt.Errorf("%w: %q is not a valid phone number", ErrInvalidAddress, address)
		}
	case notification.ChannelWebhook:
		u, err := url.Parse(address)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q is not a valid webhook URL", ErrInvalidAddress, address)
		}
	}
	return nil
}
