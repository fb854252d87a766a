package navigation

import "sync"

// Router is an in-memory Navigator that remembers where it has been.
type Router struct {
	mu      sync.Mutex
	current Region
	history []Region
}

func NewRouter(start Region) *Router {
	return &Router{current: start}
}

func (r *Router) Current() Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) Replace(to Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = to
	r.history = append(r.history, to)
}

// Go moves to a region by user action, without counting as a redirect.
func (r *Router) Go(to Region) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = to
}

// Redirects returns every region Replace was called with, oldest first.
func (r *Router) Redirects() []Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Region(nil), r.history...)
}
