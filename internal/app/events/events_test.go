package events

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRingBuffer_Append(t *testing.T) {
	rb := NewRingBuffer(10)

	rb.Append(Event{
		Type:      TypeAuctionCreated,
		AuctionID: 1,
		Bidder:    "",
	})

	if rb.Count() != 1 {
		t.Errorf("Count() = %d, want 1", rb.Count())
	}

	recent := rb.Recent(1)
	if len(recent) != 1 {
		t.Fatalf("Recent(1) len = %d, want 1", len(recent))
	}
	if recent[0].AuctionID != 1 {
		t.Errorf("AuctionID = %d, want 1", recent[0].AuctionID)
	}
	if recent[0].ID == "" {
		t.Error("ID should be auto-generated")
	}
	if recent[0].Timestamp.IsZero() {
		t.Error("Timestamp should be auto-set")
	}
}

func TestRingBuffer_Overflow(t *testing.T) {
	rb := NewRingBuffer(5)

	for i := 1; i <= 10; i++ {
		rb.Append(Event{Type: TypeAuctionBid, AuctionID: uint64(i)})
	}

	if rb.Count() != 5 {
		t.Errorf("Count() = %d, want 5 (capped)", rb.Count())
	}

	recent := rb.Recent(5)
	if len(recent) != 5 {
		t.Fatalf("Recent(5) len = %d, want 5", len(recent))
	}

	// Most recent first.
	if recent[0].AuctionID != 10 {
		t.Errorf("most recent auction = %d, want 10", recent[0].AuctionID)
	}
	if recent[4].AuctionID != 6 {
		t.Errorf("oldest retained auction = %d, want 6", recent[4].AuctionID)
	}
}

func TestRingBuffer_Recent(t *testing.T) {
	rb := NewRingBuffer(10)

	for i := 1; i <= 5; i++ {
		rb.Append(Event{Type: TypeAuctionBid, AuctionID: uint64(i)})
	}

	t.Run("request more than available", func(t *testing.T) {
		if got := rb.Recent(100); len(got) != 5 {
			t.Errorf("len = %d, want 5", len(got))
		}
	})

	t.Run("request zero", func(t *testing.T) {
		if got := rb.Recent(0); got != nil {
			t.Errorf("Recent(0) = %v, want nil", got)
		}
	})
}

func TestRingBuffer_RecentByAuction(t *testing.T) {
	rb := NewRingBuffer(10)

	rb.Append(Event{Type: TypeAuctionCreated, AuctionID: 1})
	rb.Append(Event{Type: TypeAuctionCreated, AuctionID: 2})
	rb.Append(Event{Type: TypeAuctionBid, AuctionID: 1, Amount: "100"})
	rb.Append(Event{Type: TypeAuctionEnded, AuctionID: 1})

	got := rb.RecentByAuction(1, 10)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Type != TypeAuctionEnded {
		t.Errorf("most recent = %q, want %q", got[0].Type, TypeAuctionEnded)
	}
	if got[2].Type != TypeAuctionCreated {
		t.Errorf("oldest = %q, want %q", got[2].Type, TypeAuctionCreated)
	}
}

func TestRingBuffer_RecentByType(t *testing.T) {
	rb := NewRingBuffer(10)

	rb.Append(Event{Type: TypeAuctionCreated, AuctionID: 1})
	rb.Append(Event{Type: TypeAuctionBid, AuctionID: 1})
	rb.Append(Event{Type: TypeAuctionBid, AuctionID: 1})

	if got := rb.RecentByType(TypeAuctionBid, 10); len(got) != 2 {
		t.Errorf("bid events = %d, want 2", len(got))
	}
	if got := rb.RecentByType(TypeAuctionCanceled, 10); got != nil {
		t.Errorf("canceled events = %v, want nil", got)
	}
}

func TestRingBuffer_Subscribe(t *testing.T) {
	rb := NewRingBuffer(10)

	var calls atomic.Int64
	unsubscribe := rb.Subscribe(func(Event) {
		calls.Add(1)
	})

	rb.Append(Event{Type: TypeAuctionCreated, AuctionID: 1})
	rb.Append(Event{Type: TypeAuctionBid, AuctionID: 1})

	if calls.Load() != 2 {
		t.Errorf("handler calls = %d, want 2", calls.Load())
	}

	unsubscribe()
	rb.Append(Event{Type: TypeAuctionEnded, AuctionID: 1})

	if calls.Load() != 2 {
		t.Errorf("handler calls after unsubscribe = %d, want 2", calls.Load())
	}
}

func TestRingBuffer_ConcurrentAppend(t *testing.T) {
	rb := NewRingBuffer(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				rb.Append(Event{Type: TypeAuctionBid, AuctionID: id})
			}
		}(uint64(i))
	}
	wg.Wait()

	if rb.Count() != 100 {
		t.Errorf("Count() = %d, want 100", rb.Count())
	}
}

func TestRingBuffer_Clear(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Append(Event{Type: TypeAuctionCreated, AuctionID: 1})

	rb.Clear()

	if rb.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", rb.Count())
	}
	if got := rb.Recent(10); got != nil {
		t.Errorf("Recent after Clear = %v, want nil", got)
	}
}
