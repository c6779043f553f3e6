package notification

import (
	"fmt"
	"time"
)

// Channel is a delivery transport. The enum is closed: every channel carries
// a fixed capability table the delivery orchestration and template layer rely
// on (address requirement, message-size limit, typical latency, relative
// cost, and feature support flags).
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelPush    Channel = "push"
	ChannelInApp   Channel = "in_app"
	ChannelWebhook Channel = "webhook"
)

// Channels returns all known channels in a fixed, stable order.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp, ChannelWebhook}
}

// ParseChannel converts a string into a Channel, failing fast on unknown
// values.
func ParseChannel(s string) (Channel, error) {
	c := Channel(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	return c, nil
}

// Valid reports whether the channel is one of the known transports.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp, ChannelWebhook:
		return true
	}
	return false
}

func (c Channel) String() string {
	return string(c)
}

// Capabilities describes the fixed characteristics of a channel.
type Capabilities struct {
	// RequiresAddress indicates the channel needs an external address
	// (email address, phone number, webhook URL) configured per recipient.
	RequiresAddress bool

	// MaxMessageSize is the maximum rendered body size in bytes.
	MaxMessageSize int

	// TypicalLatency is the expected time for a single delivery; dispatch
	// timeouts default to a multiple of this value.
	TypicalLatency time.Duration

	// CostFactor is the relative delivery cost, used by channel scoring.
	CostFactor float64

	SupportsRichContent bool
	SupportsScheduling  bool
	SupportsBulk        bool
}

// Capabilities returns the fixed capability table for the channel. Unknown
// channels report zero capabilities, which makes them fail every size and
// address check downstream.
func (c Channel) Capabilities() Capabilities {
	switch c {
	case ChannelEmail:
		return Capabilities{
			RequiresAddress:     true,
			MaxMessageSize:      100000,
			TypicalLatency:      30 * time.Second,
			CostFactor:          1.0,
			SupportsRichContent: true,
			SupportsScheduling:  true,
			SupportsBulk:        true,
		}
	case ChannelSMS:
		return Capabilities{
			RequiresAddress: true,
			MaxMessageSize:  160,
			TypicalLatency:  5 * time.Second,
			CostFactor:      5.0,
		}
	case ChannelPush:
		return Capabilities{
			MaxMessageSize:      4096,
			TypicalLatency:      2 * time.Second,
			CostFactor:          0.5,
			SupportsRichContent: true,
			SupportsBulk:        true,
		}
	case ChannelInApp:
		return Capabilities{
			MaxMessageSize:      10000,
			TypicalLatency:      100 * time.Millisecond,
			CostFactor:          0.1,
			SupportsRichContent: true,
			SupportsScheduling:  true,
			SupportsBulk:        true,
		}
	case ChannelWebhook:
		return Capabilities{
			RequiresAddress:     true,
			MaxMessageSize:      65536,
			TypicalLatency:      10 * time.Second,
			CostFactor:          0.2,
			SupportsRichContent: true,
			SupportsBulk:        true,
		}
	default:
		return Capabilities{}
	}
}
