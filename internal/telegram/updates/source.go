package updates

import (
	"iter"
	"time"

	"github.com/mymmrac/telego"
)

// Listener provides Telegram updates regardless of how they are received.
type Listener interface {
	// Updates returns a lazy sequence of updates. Every call starts a new
	// sequence; a sequence must be ranged by a single consumer.
	Updates() iter.Seq2[telego.Update, error]
	// StopToken returns a handle that terminates the sequence.
	StopToken() StopToken
	// HintAllowedUpdates suggests update kinds the consumer is interested in.
	HintAllowedUpdates(kinds []string)
	// TimeoutHint reports how long a single receive may block, if known.
	TimeoutHint() (time.Duration, bool)
}

// StopToken terminates a running listener.
type StopToken interface {
	// Stop requests termination. Only the first call has an effect.
	Stop()
	// Stopped is closed once shutdown has actually begun.
	Stopped() <-chan struct{}
}
