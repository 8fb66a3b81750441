// Package events records the auction lifecycle event surface. Every
// successful operation appends exactly one event (two when a bid extends the
// auction) carrying the full post-operation state, so a consumer can rebuild
// the auction's history from the stream alone.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type classifies a lifecycle event.
type Type string

const (
	TypeAuctionCreated      Type = "auction.created"
	TypeApprovalUpdated     Type = "auction.approval_updated"
	TypeReservePriceUpdated Type = "auction.reserve_price_updated"
	TypeAuctionBid          Type = "auction.bid"
	TypeDurationExtended    Type = "auction.duration_extended"
	TypeAuctionEnded        Type = "auction.ended"
	TypeAuctionCanceled     Type = "auction.canceled"
)

// Event is one lifecycle occurrence. Monetary fields are decimal strings in
// base units; fields irrelevant to the event type are left empty.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	AuctionID     uint64 `json:"auction_id"`
	TokenContract string `json:"token_contract,omitempty"`
	TokenID       string `json:"token_id,omitempty"`

	// Post-operation state.
	Duration       time.Duration `json:"duration_ns,omitempty"`
	ReservePrice   string        `json:"reserve_price,omitempty"`
	Curator        string        `json:"curator,omitempty"`
	CuratorFeePct  uint8         `json:"curator_fee_pct,omitempty"`
	TokenOwner     string        `json:"token_owner,omitempty"`
	FundsRecipient string        `json:"funds_recipient,omitempty"`
	Currency       string        `json:"currency,omitempty"`
	Approved       bool          `json:"approved,omitempty"`

	// Bid fields.
	Bidder         string `json:"bidder,omitempty"`
	Amount         string `json:"amount,omitempty"`
	PreviousBidder string `json:"previous_bidder,omitempty"`
	FirstBid       bool   `json:"first_bid,omitempty"`
	Extended       bool   `json:"extended,omitempty"`

	// Settlement fields.
	Winner      string `json:"winner,omitempty"`
	CuratorFee  string `json:"curator_fee,omitempty"`
	OwnerProfit string `json:"owner_profit,omitempty"`
	RoyaltyPaid string `json:"royalty_paid,omitempty"`
}

// String returns a human-readable representation.
func (e Event) String() string {
	data, _ := json.Marshal(e)
	return string(data)
}

// Handler processes events as they are appended.
type Handler func(Event)

// Log is the event sink the lifecycle service appends to.
type Log interface {
	Append(event Event)
	Subscribe(handler Handler) func()
	Recent(n int) []Event
	RecentByAuction(id uint64, n int) []Event
	RecentByType(t Type, n int) []Event
	Count() int
}

// RingBuffer is a thread-safe circular event log.
type RingBuffer struct {
	mu       sync.RWMutex
	events   []Event
	size     int
	head     int
	count    int
	handlers []handlerEntry
	nextID   int64
}

type handlerEntry struct {
	id      int64
	handler Handler
}

var _ Log = (*RingBuffer)(nil)

// NewRingBuffer creates an event log holding the most recent size events.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 1000
	}
	return &RingBuffer{
		events: make([]Event, size),
		size:   size,
	}
}

// Append adds an event to the buffer and notifies subscribers.
func (rb *RingBuffer) Append(event Event) {
	rb.mu.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	rb.events[rb.head] = event
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}

	handlers := make([]handlerEntry, len(rb.handlers))
	copy(handlers, rb.handlers)
	rb.mu.Unlock()

	// Notify handlers outside the lock.
	for _, h := range handlers {
		h.handler(event)
	}
}

// Subscribe registers a handler for all appended events. The returned
// function unsubscribes it.
func (rb *RingBuffer) Subscribe(handler Handler) func() {
	rb.mu.Lock()
	id := rb.nextID
	rb.nextID++
	rb.handlers = append(rb.handlers, handlerEntry{id: id, handler: handler})
	rb.mu.Unlock()

	return func() {
		rb.mu.Lock()
		defer rb.mu.Unlock()
		for i, h := range rb.handlers {
			if h.id == id {
				rb.handlers = append(rb.handlers[:i], rb.handlers[i+1:]...)
				return
			}
		}
	}
}

// Recent returns the most recent N events in reverse chronological order.
func (rb *RingBuffer) Recent(n int) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || rb.count == 0 {
		return nil
	}
	if n > rb.count {
		n = rb.count
	}

	result := make([]Event, n)
	for i := 0; i < n; i++ {
		idx := (rb.head - 1 - i + rb.size) % rb.size
		result[i] = rb.events[idx]
	}
	return result
}

// RecentByAuction returns recent events for one auction.
func (rb *RingBuffer) RecentByAuction(id uint64, n int) []Event {
	return rb.recentMatching(n, func(e Event) bool { return e.AuctionID == id })
}

// RecentByType returns recent events of one type.
func (rb *RingBuffer) RecentByType(t Type, n int) []Event {
	return rb.recentMatching(n, func(e Event) bool { return e.Type == t })
}

func (rb *RingBuffer) recentMatching(n int, match func(Event) bool) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 || rb.count == 0 {
		return nil
	}

	var result []Event
	for i := 0; i < rb.count && len(result) < n; i++ {
		idx := (rb.head - 1 - i + rb.size) % rb.size
		if match(rb.events[idx]) {
			result = append(result, rb.events[idx])
		}
	}
	return result
}

// Count returns the number of events currently held.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Clear removes all events.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.events = make([]Event, rb.size)
	rb.head = 0
	rb.count = 0
}

// NoOpLog discards all events.
type NoOpLog struct{}

var _ Log = NoOpLog{}

func (NoOpLog) Append(Event)                        {}
func (NoOpLog) Subscribe(Handler) func()            { return func() {} }
func (NoOpLog) Recent(int) []Event                  { return nil }
func (NoOpLog) RecentByAuction(uint64, int) []Event { return nil }
func (NoOpLog) RecentByType(Type, int) []Event      { return nil }
func (NoOpLog) Count() int                          { return 0 }
