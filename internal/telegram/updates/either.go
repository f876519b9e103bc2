package updates

import (
	"iter"
	"time"

	"github.com/mymmrac/telego"
)

// Either holds exactly one of two listeners and forwards every call to it.
// The active side is fixed at construction.
type Either[L, R Listener] struct {
	left    L
	right   R
	isRight bool
}

var _ Listener = (*Either[*LongPolling, *Webhook])(nil)

// Left wraps l as the active listener.
func Left[L, R Listener](l L) *Either[L, R] {
	return &Either[L, R]{left: l}
}

// Right wraps r as the active listener.
func Right[L, R Listener](r R) *Either[L, R] {
	return &Either[L, R]{right: r, isRight: true}
}

// IsLeft reports whether the left listener is active.
func (e *Either[L, R]) IsLeft() bool {
	return !e.isRight
}

// IsRight reports whether the right listener is active.
func (e *Either[L, R]) IsRight() bool {
	return e.isRight
}

// AsLeft returns the left listener if it is active.
func (e *Either[L, R]) AsLeft() (L, bool) {
	return e.left, !e.isRight
}

// AsRight returns the right listener if it is active.
func (e *Either[L, R]) AsRight() (R, bool) {
	return e.right, e.isRight
}

// Unwrap returns the active listener.
func (e *Either[L, R]) Unwrap() Listener {
	if e.isRight {
		return e.right
	}
	return e.left
}

// Updates returns the active listener's update sequence.
func (e *Either[L, R]) Updates() iter.Seq2[telego.Update, error] {
	return e.Unwrap().Updates()
}

// StopToken returns the active listener's stop token.
func (e *Either[L, R]) StopToken() StopToken {
	return e.Unwrap().StopToken()
}

// HintAllowedUpdates forwards the hint to the active listener.
func (e *Either[L, R]) HintAllowedUpdates(kinds []string) {
	e.Unwrap().HintAllowedUpdates(kinds)
}

// TimeoutHint returns the active listener's timeout hint.
func (e *Either[L, R]) TimeoutHint() (time.Duration, bool) {
	return e.Unwrap().TimeoutHint()
}
