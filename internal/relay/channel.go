// Package relay couples one transmitter to many listeners per named
// channel. Broadcast is lossy: a listener whose queue is full misses chunks
// and is told to re-align at the next cluster boundary, so one slow
// listener never stalls the transmitter or its peers.
package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/Azunyan1111/go-webm-relay/internal/webm"
)

// DefaultQueueSize bounds each listener's chunk queue. Small enough that
// lag is detected promptly, large enough to ride out scheduling hiccups.
const DefaultQueueSize = 8

// ErrTransmitterBusy is returned when a channel already has a live
// transmitter.
var ErrTransmitterBusy = errors.New("relay: channel already has a transmitter")

// Channel is the shared state for one stream name. Its mutex guards only
// the listener set and transmitter flag; no I/O happens under it.
type Channel struct {
	name string

	mu        sync.Mutex
	nextID    int
	txPresent bool
	listeners map[int]*queue
}

type queue struct {
	ch     chan webm.Chunk
	lagged atomic.Bool
}

func newChannel(name string) *Channel {
	return &Channel{name: name, listeners: make(map[int]*queue)}
}

func (c *Channel) Name() string { return c.name }

// Listeners returns the current listener count.
func (c *Channel) Listeners() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// HasTransmitter reports whether a transmitter currently owns the channel.
func (c *Channel) HasTransmitter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txPresent
}

// Transmit claims the channel's transmitter slot.
func (c *Channel) Transmit() (*Transmitter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.txPresent {
		return nil, ErrTransmitterBusy
	}
	c.txPresent = true
	return &Transmitter{channel: c}, nil
}

// Listen registers a new listener with the given queue capacity
// (DefaultQueueSize when non-positive).
func (c *Channel) Listen(queueSize int) *Listener {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	q := &queue{ch: make(chan webm.Chunk, queueSize)}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = q
	c.mu.Unlock()

	return &Listener{channel: c, id: id, q: q}
}

// Transmitter is the single producer side of a channel.
type Transmitter struct {
	channel *Channel
}

// Send enqueues the chunk on every listener's queue. A listener whose queue
// is full has the chunk dropped and is marked lagged; Send never blocks.
func (t *Transmitter) Send(chunk webm.Chunk) {
	c := t.channel
	c.mu.Lock()
	queues := make([]*queue, 0, len(c.listeners))
	for _, q := range c.listeners {
		queues = append(queues, q)
	}
	c.mu.Unlock()

	for _, q := range queues {
		select {
		case q.ch <- chunk:
		default:
			q.lagged.Store(true)
		}
	}
}

// Close releases the transmitter slot and ends the stream for current
// listeners: their queues drain and then report end-of-stream. The channel
// itself stays usable for the next transmitter.
func (t *Transmitter) Close() {
	c := t.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txPresent = false
	for id, q := range c.listeners {
		close(q.ch)
		delete(c.listeners, id)
	}
}

// Listener is one consumer of a channel.
type Listener struct {
	channel *Channel
	id      int
	q       *queue
}

// Recv dequeues the next chunk. resync is true when chunks were dropped
// since the previous Recv; the caller should re-enter its starting-point
// filter before forwarding. Returns io.EOF once the transmitter is gone and
// the queue is drained.
func (l *Listener) Recv(ctx context.Context) (chunk webm.Chunk, resync bool, err error) {
	select {
	case chunk, ok := <-l.q.ch:
		if !ok {
			return nil, false, io.EOF
		}
		return chunk, l.q.lagged.Swap(false), nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Close removes the listener from the channel. Chunks still queued are
// discarded.
func (l *Listener) Close() {
	c := l.channel
	c.mu.Lock()
	delete(c.listeners, l.id)
	c.mu.Unlock()
}
