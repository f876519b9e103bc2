package updates

import (
	"context"
	"sync"
)

// cancelStop stops a listener whose shutdown is a context cancellation.
type cancelStop struct {
	cancel context.CancelFunc
	done   <-chan struct{}
}

func (s cancelStop) Stop() {
	s.cancel()
}

func (s cancelStop) Stopped() <-chan struct{} {
	return s.done
}

// signalStop is a stop pair: Stop closes signal for the owner to react to,
// and the owner calls markStopped once shutdown is under way.
type signalStop struct {
	stopOnce    sync.Once
	stoppedOnce sync.Once
	signal      chan struct{}
	stopped     chan struct{}
}

func newSignalStop() *signalStop {
	return &signalStop{
		signal:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *signalStop) Stop() {
	s.stopOnce.Do(func() { close(s.signal) })
}

func (s *signalStop) Stopped() <-chan struct{} {
	return s.stopped
}

func (s *signalStop) markStopped() {
	s.stoppedOnce.Do(func() { close(s.stopped) })
}
