package dexcell

import (
	"time"

	"github.com/bft-labs/dexcell/pkg/lifecycle"
	"github.com/bft-labs/dexcell/pkg/message"
)

// EventHandler receives Streamer events. Methods are called synchronously
// from the streaming goroutine and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnBatchSent(event BatchEvent)
	OnBatchFailed(event BatchEvent)
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous lifecycle.State
	Current  lifecycle.State
	Reason   string
}

// BatchEvent describes one insert request.
type BatchEvent struct {
	Readings   []message.ServiceMessage
	StatusCode int
	Duration   time.Duration
	Err        error
}

// eventEmitterWrapper adapts EventHandler to lifecycle.Listener.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e eventEmitterWrapper) OnStateChange(previous, current lifecycle.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e eventEmitterWrapper) batchSent(ev BatchEvent) {
	if e.handler != nil {
		e.handler.OnBatchSent(ev)
	}
}

func (e eventEmitterWrapper) batchFailed(ev BatchEvent) {
	if e.handler != nil {
		e.handler.OnBatchFailed(ev)
	}
}
