// Package schedule runs recurring background tasks on fixed intervals. The
// server registers an hourly sweep of expired verification codes; the TTL
// index does the real expiry, the sweep keeps the collection tidy when the
// monitor falls behind.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/herbveda/storefront/pkg/logger"
)

// Task is a unit of scheduled work.
type Task func()

type entry struct {
	id       string
	interval time.Duration
	task     Task
	lastRun  time.Time
	running  bool
	mu       sync.Mutex
}

var (
	regMu   sync.Mutex
	entries []*entry
)

// Every registers task to run once per interval, starting immediately.
// Runs never overlap: a tick is skipped while the previous run is still going.
func Every(interval time.Duration, id string, task Task) {
	if id == "" {
		id = fmt.Sprintf("task-%d", len(entries)+1)
	}
	regMu.Lock()
	entries = append(entries, &entry{id: id, interval: interval, task: task})
	regMu.Unlock()
}

// Start launches the scheduler loop. It stops when ctx is cancelled.
func Start(ctx context.Context) {
	go run(ctx)
	logger.Info("schedule: scheduler started")
}

func run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			regMu.Lock()
			current := make([]*entry, len(entries))
			copy(current, entries)
			regMu.Unlock()

			for _, e := range current {
				if e.due(now) {
					e.dispatch()
				}
			}
		}
	}
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastRun.IsZero() {
		return true
	}
	return now.Sub(e.lastRun) >= e.interval
}

func (e *entry) dispatch() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping run", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = time.Now()
	e.mu.Unlock()

	go func() {
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()
		logger.Debug("schedule: running task", "id", e.id)
		e.task()
	}()
}

// List describes the registered entries, one line each, for the CLI.
func List() []string {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s  [every %s]", e.id, e.interval))
	}
	return out
}

// Flush drops all registered entries. Tests use it between cases.
func Flush() {
	regMu.Lock()
	defer regMu.Unlock()
	entries = nil
}
