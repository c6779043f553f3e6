package delivery

import "time"

// Config carries the delivery tunables read from the environment.
type Config struct {
	// BaseRetryDelay is the first step of the exponential backoff.
	BaseRetryDelay time.Duration `env:"DELIVERY_BASE_RETRY_DELAY" envDefault:"60s"`

	// BatchSize bounds how many users DeliverBulk processes per batch.
	BatchSize int `env:"DELIVERY_BATCH_SIZE" envDefault:"100"`

	// BatchDelay is the pause between bulk batches.
	BatchDelay time.Duration `env:"DELIVERY_BATCH_DELAY" envDefault:"1s"`

	// Workers bounds per-batch concurrency in DeliverBulk.
	Workers int `env:"DELIVERY_WORKERS" envDefault:"10"`

	// ChannelTimeout overrides the per-channel dispatch timeout. Zero keeps
	// the default of twice the channel's typical latency.
	ChannelTimeout time.Duration `env:"DELIVERY_CHANNEL_TIMEOUT" envDefault:"0"`
}
