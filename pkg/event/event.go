// Package event is a small in-process dispatcher. The order pipeline uses it
// to decouple order creation from invoice delivery: creating an order fires
// "order.created" and returns without waiting on listeners.
package event

import "sync"

// Handler receives the event payload.
type Handler func(payload any)

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

// Listen registers a handler for the named event.
func Listen(name string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = append(handlers[name], h)
}

// Fire dispatches synchronously to every listener, in registration order.
func Fire(name string, payload any) {
	for _, h := range snapshot(name) {
		h(payload)
	}
}

// FireAsync dispatches each listener on its own goroutine and returns
// immediately.
func FireAsync(name string, payload any) {
	for _, h := range snapshot(name) {
		go h(payload)
	}
}

func snapshot(name string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	hs := make([]Handler, len(handlers[name]))
	copy(hs, handlers[name])
	return hs
}

// Flush drops all listeners. Tests use it to isolate registrations.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
