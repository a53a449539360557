package event_test

import (
	"sync"
	"testing"
	"time"

	"github.com/herbveda/storefront/pkg/event"
)

func TestFireOrderAndPayload(t *testing.T) {
	defer event.Flush()

	var got []int
	event.Listen("test.fired", func(p any) { got = append(got, p.(int)*10) })
	event.Listen("test.fired", func(p any) { got = append(got, p.(int)*100) })

	event.Fire("test.fired", 3)

	if len(got) != 2 || got[0] != 30 || got[1] != 300 {
		t.Fatalf("listeners ran out of order or with wrong payload: %v", got)
	}
}

func TestFireWithoutListeners(t *testing.T) {
	defer event.Flush()
	event.Fire("nobody.listens", "payload") // must not panic
}

func TestFireAsync(t *testing.T) {
	defer event.Flush()

	var wg sync.WaitGroup
	wg.Add(2)
	event.Listen("test.async", func(any) { wg.Done() })
	event.Listen("test.async", func(any) { wg.Done() })

	event.FireAsync("test.async", nil)

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async listeners did not run")
	}
}

func TestFlush(t *testing.T) {
	called := false
	event.Listen("test.flush", func(any) { called = true })
	event.Flush()
	event.Fire("test.flush", nil)
	if called {
		t.Fatal("listener survived Flush")
	}
}
