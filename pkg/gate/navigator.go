package gate

import "sync"

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(route Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route Route) { f(route) }

// History is a Navigator that records where the client was sent.
type History struct {
	mu     sync.Mutex
	routes []Route

	// OnNavigate is called after each navigation is recorded.
	OnNavigate func(Route)
}

// Navigate records route.
func (h *History) Navigate(route Route) {
	h.mu.Lock()
	h.routes = append(h.routes, route)
	cb := h.OnNavigate
	h.mu.Unlock()
	if cb != nil {
		cb(route)
	}
}

// Current returns the most recent route, or RouteLanding if none.
func (h *History) Current() Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.routes) == 0 {
		return RouteLanding
	}
	return h.routes[len(h.routes)-1]
}

// Routes returns a copy of every recorded navigation.
func (h *History) Routes() []Route {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Route, len(h.routes))
	copy(out, h.routes)
	return out
}
