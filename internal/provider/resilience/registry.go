package resilience

import (
	"sync"

	"github.com/sony/gobreaker/v2"
)

// Health is a point-in-time view of one upstream's circuit breaker.
type Health struct {
	Name     string
	State    gobreaker.State
	Counts   gobreaker.Counts
	Healthy  bool
	Degraded bool
}

// Registry holds the service's named provider clients so operational
// endpoints can report their breaker state. It is constructed once at startup
// and passed explicitly; there is no ambient global instance.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register adds a client under its configured name. Registering the same
// name twice replaces the earlier client.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.Name()] = client
}

// Health reports the breaker state for one upstream, or nil if unknown.
func (r *Registry) Health(name string) *Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil
	}
	h := healthOf(client)
	return &h
}

// AllHealth reports the breaker state for every registered upstream.
func (r *Registry) AllHealth() []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Health, 0, len(r.clients))
	for _, client := range r.clients {
		out = append(out, healthOf(client))
	}
	return out
}

func healthOf(client *Client) Health {
	state := client.BreakerState()
	return Health{
		Name:     client.Name(),
		State:    state,
		Counts:   client.BreakerCounts(),
		Healthy:  state == gobreaker.StateClosed,
		Degraded: state == gobreaker.StateHalfOpen,
	}
}
