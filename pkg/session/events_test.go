package session

import (
	"sync"
	"testing"
)

func TestBroadcasterDeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()
	var got []Change
	unsubscribe := b.OnChange(func(c Change) { got = append(got, c) })
	defer unsubscribe()

	b.Emit(Change{Event: SignedIn, UserID: "user-1"})
	b.Emit(Change{Event: TokenRefreshed, UserID: "user-1"})

	if len(got) != 2 {
		t.Fatalf("received %d changes, want 2", len(got))
	}
	if got[0].Event != SignedIn || got[1].Event != TokenRefreshed {
		t.Fatalf("events = %v", got)
	}
}

func TestBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	calls := 0
	unsubscribe := b.OnChange(func(Change) { calls++ })
	b.Emit(Change{Event: SignedIn})
	unsubscribe()
	b.Emit(Change{Event: SignedOut})
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
}

func TestBroadcasterUnsubscribeIsIdempotent(t *testing.T) {
	b := NewBroadcaster()
	unsubscribe := b.OnChange(func(Change) {})
	unsubscribe()
	unsubscribe()
	b.Emit(Change{Event: SignedOut})
}

func TestBroadcasterIndependentSubscribers(t *testing.T) {
	b := NewBroadcaster()
	var first, second int
	stopFirst := b.OnChange(func(Change) { first++ })
	stopSecond := b.OnChange(func(Change) { second++ })
	defer stopSecond()

	b.Emit(Change{Event: SignedIn})
	stopFirst()
	b.Emit(Change{Event: SignedOut})

	if first != 1 || second != 2 {
		t.Fatalf("first=%d second=%d, want 1 and 2", first, second)
	}
}

func TestBroadcasterConcurrentEmit(t *testing.T) {
	b := NewBroadcaster()
	var mu sync.Mutex
	calls := 0
	defer b.OnChange(func(Change) {
		mu.Lock()
		calls++
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Emit(Change{Event: TokenRefreshed})
		}()
	}
	wg.Wait()
	if calls != 20 {
		t.Fatalf("handler called %d times, want 20", calls)
	}
}
