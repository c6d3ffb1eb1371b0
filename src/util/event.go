package util

import (
	"context"
	"sync"
	"time"
)

// An Eventer is a type that emits events.
type Eventer interface {
	Listen(ctx context.Context) <-chan interface{}
}

// An Emitter broadcasts events to all listeners.
type Emitter struct {
	// The release attribute determines how much time the event should be
	// buffered to prevent the emission of duplicate events.
	// A zero value will disable buffering.
	Release time.Duration

	lock      sync.Mutex
	listeners map[chan interface{}]context.Context
	release   map[interface{}]struct{}
}

func (emitter *Emitter) broadcast(event interface{}) {
	emitter.lock.Lock()
	defer emitter.lock.Unlock()
	for ch, ctx := range emitter.listeners {
		select {
		case ch <- event:
		case <-ctx.Done():
		default:
			// The listener is lagging too far behind, drop the event.
		}
	}
}

// Emit sends the event to all listeners. Events must be comparable.
func (emitter *Emitter) Emit(event interface{}) {
	if emitter.Release == 0 {
		emitter.broadcast(event)
		return
	}

	emitter.lock.Lock()
	if emitter.release == nil {
		emitter.release = map[interface{}]struct{}{}
	}
	// Check whether the event is already scheduled.
	if _, ok := emitter.release[event]; ok {
		emitter.lock.Unlock()
		return
	}
	emitter.release[event] = struct{}{}
	emitter.lock.Unlock()

	time.AfterFunc(emitter.Release, func() {
		emitter.broadcast(event)
		emitter.lock.Lock()
		delete(emitter.release, event)
		emitter.lock.Unlock()
	})
}

// Listen returns a channel on which events are received until the context
// is cancelled. The channel is closed afterwards.
func (emitter *Emitter) Listen(ctx context.Context) <-chan interface{} {
	ch := make(chan interface{}, 16)

	emitter.lock.Lock()
	if emitter.listeners == nil {
		emitter.listeners = map[chan interface{}]context.Context{}
	}
	emitter.listeners[ch] = ctx
	emitter.lock.Unlock()

	go func() {
		<-ctx.Done()
		emitter.lock.Lock()
		delete(emitter.listeners, ch)
		close(ch)
		emitter.lock.Unlock()
	}()
	return ch
}
