package relay

import (
	"runtime"
	"sync"
	"weak"
)

// Registry is the process-wide, name-keyed channel map. It holds only weak
// references: transmitters and listeners keep a channel alive, and once the
// last of them is gone the entry is reclaimed without an explicit
// unregister call.
type Registry struct {
	mu       sync.Mutex
	channels map[string]weak.Pointer[Channel]
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]weak.Pointer[Channel])}
}

// Channel returns the live channel for name, creating one if the name is
// unused or its previous channel has been collected.
func (r *Registry) Channel(name string) *Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.channels[name]; ok {
		if c := p.Value(); c != nil {
			return c
		}
	}

	c := newChannel(name)
	p := weak.Make(c)
	r.channels[name] = p
	// Drop the map entry once the channel is collected, unless a newer
	// channel has already taken the name.
	runtime.AddCleanup(c, func(name string) {
		r.mu.Lock()
		if cur, ok := r.channels[name]; ok && cur == p {
			delete(r.channels, name)
		}
		r.mu.Unlock()
	}, name)
	return c
}

// Len returns the number of registered names, including entries whose
// channel is dead but not yet cleaned up.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
