package board

import (
	"context"
	"sync"
)

// Edge is a level change observed on an interrupt pin.
type Edge struct {
	Name             string
	High             bool
	TimestampNanosec uint64
}

// DigitalInterrupt watches a pin and fans its edges out to subscribed channels.
type DigitalInterrupt interface {
	// Name returns the interrupt's name.
	Name() string

	// Value returns the pin's current level.
	Value(ctx context.Context) (bool, error)

	// AddCallback adds a channel that receives every edge.
	AddCallback(ch chan Edge)

	// RemoveCallback stops sending edges to ch.
	RemoveCallback(ch chan Edge)
}

// Interrupts is implemented by boards that can watch pins for edges.
type Interrupts interface {
	DigitalInterruptByName(name string) (DigitalInterrupt, error)
}

// BasicDigitalInterrupt tracks the level and the callbacks of one interrupt. Backends feed it
// through Tick.
type BasicDigitalInterrupt struct {
	name string

	mu        sync.RWMutex
	high      bool
	callbacks []chan Edge
}

// NewBasicDigitalInterrupt returns an interrupt with no subscribers and a low level.
func NewBasicDigitalInterrupt(name string) *BasicDigitalInterrupt {
	return &BasicDigitalInterrupt{name: name}
}

// Name returns the interrupt's name.
func (i *BasicDigitalInterrupt) Name() string {
	return i.name
}

// Value returns the level set by the last Tick.
func (i *BasicDigitalInterrupt) Value(ctx context.Context) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.high, nil
}

// Tick records a new level and sends it to every callback. It blocks until each subscriber has
// taken the edge or ctx is done. Callbacks are held for the whole send, so once RemoveCallback
// returns no Tick will send on the removed channel.
func (i *BasicDigitalInterrupt) Tick(ctx context.Context, high bool, nanoseconds uint64) error {
	i.mu.Lock()
	i.high = high
	i.mu.Unlock()

	i.mu.RLock()
	defer i.mu.RUnlock()
	edge := Edge{Name: i.name, High: high, TimestampNanosec: nanoseconds}
	for _, c := range i.callbacks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c <- edge:
		}
	}
	return nil
}

// AddCallback adds a channel that receives every edge.
func (i *BasicDigitalInterrupt) AddCallback(c chan Edge) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.callbacks = append(i.callbacks, c)
}

// RemoveCallback stops sending edges to c. It waits for any Tick in progress, so the owner of c
// must keep receiving until it returns.
func (i *BasicDigitalInterrupt) RemoveCallback(c chan Edge) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id := range i.callbacks {
		if i.callbacks[id] == c {
			i.callbacks = append(i.callbacks[:id], i.callbacks[id+1:]...)
			return
		}
	}
}
