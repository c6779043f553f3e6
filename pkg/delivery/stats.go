package delivery

import (
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// ChannelStats is an immutable snapshot of one channel's delivery history.
type ChannelStats struct {
	Attempts            int64
	Successes           int64
	Failures            int64
	AverageResponseTime time.Duration
}

// SuccessRate returns the fraction of attempts that succeeded. Channels with
// no history report 1.0 so new channels are not starved by the scorer.
func (s ChannelStats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 1.0
	}
	return float64(s.Successes) / float64(s.Attempts)
}

type channelCounters struct {
	attempts  int64
	successes int64
	failures  int64
	totalTime time.Duration
}

// StatsCollector accumulates per-channel delivery statistics. It is owned by
// one Service instance and updated concurrently by in-flight deliveries.
type StatsCollector struct {
	mu       sync.RWMutex
	channels map[notification.Channel]*channelCounters
}

// NewStatsCollector creates an empty collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		channels: make(map[notification.Channel]*channelCounters),
	}
}

// Record folds one delivery attempt into the channel's counters.
func (c *StatsCollector) Record(channel notification.Channel, success bool, responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	counters, ok := c.channels[channel]
	if !ok {
		counters = &channelCounters{}
		c.channels[channel] = counters
	}
	counters.attempts++
	if success {
		counters.successes++
	} else {
		counters.failures++
	}
	counters.totalTime += responseTime
}

// Channel returns the snapshot for one channel.
func (c *StatsCollector) Channel(channel notification.Channel) ChannelStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked(channel)
}

// Snapshot returns per-channel snapshots for every channel with history.
func (c *StatsCollector) Snapshot() map[notification.Channel]ChannelStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[notification.Channel]ChannelStats, len(c.channels))
	for channel := range c.channels {
		out[channel] = c.snapshotLocked(channel)
	}
	return out
}

func (c *StatsCollector) snapshotLocked(channel notification.Channel) ChannelStats {
	counters, ok := c.channels[channel]
	if !ok {
		return ChannelStats{}
	}
	stats := ChannelStats{
		Attempts:  counters.attempts,
		Successes: counters.successes,
		Failures:  counters.failures,
	}
	if counters.attempts > 0 {
		stats.AverageResponseTime = counters.totalTime / time.Duration(counters.attempts)
	}
	return stats
}

// Reset clears all accumulated counters.
func (c *StatsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels = make(map[notification.Channel]*channelCounters)
}
