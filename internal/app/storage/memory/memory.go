// Package memory is the in-memory implementation of the storage interfaces.
// It is safe for concurrent use and is the reference registry for tests and
// local development.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
	"github.com/R3E-Network/auction_house/internal/app/storage"
)

// Store holds auction records and wrapped-credit audit entries.
type Store struct {
	mu       sync.RWMutex
	nextID   uint64
	auctions map[uint64]auction.Auction
	credits  map[string][]auction.WrappedCredit
}

var _ storage.AuctionStore = (*Store)(nil)
var _ storage.CreditStore = (*Store)(nil)

// New creates an empty store. The identifier counter starts at 1.
func New() *Store {
	return &Store{
		nextID:   1,
		auctions: make(map[uint64]auction.Auction),
		credits:  make(map[string][]auction.WrappedCredit),
	}
}

func (s *Store) CreateAuction(_ context.Context, a auction.Auction) (auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID == math.MaxUint64 {
		return auction.Auction{}, auction.ErrIDSpaceExhausted
	}
	a.ID = s.nextID
	s.nextID++

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	s.auctions[a.ID] = a.Clone()
	return a.Clone(), nil
}

func (s *Store) GetAuction(_ context.Context, id uint64) (auction.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[id]
	if !ok {
		return auction.Auction{}, auction.ErrAuctionNotFound
	}
	return a.Clone(), nil
}

func (s *Store) UpdateAuction(_ context.Context, a auction.Auction) (auction.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.auctions[a.ID]
	if !ok {
		return auction.Auction{}, auction.ErrAuctionNotFound
	}

	a.CreatedAt = original.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	s.auctions[a.ID] = a.Clone()
	return a.Clone(), nil
}

// DeleteAuction removes the record entirely. The identifier is never
// resurrected.
func (s *Store) DeleteAuction(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.auctions[id]; !ok {
		return auction.ErrAuctionNotFound
	}
	delete(s.auctions, id)
	return nil
}

// ListAuctions returns all live records ordered by identifier.
func (s *Store) ListAuctions(_ context.Context) ([]auction.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]auction.Auction, 0, len(s.auctions))
	for _, a := range s.auctions {
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CreditStore implementation -------------------------------------------------

func (s *Store) CreateCredit(_ context.Context, c auction.WrappedCredit) (auction.WrappedCredit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	c.Amount = auction.CopyAmount(c.Amount)

	s.credits[c.Recipient] = append(s.credits[c.Recipient], c)
	return c, nil
}

func (s *Store) ListCredits(_ context.Context, recipient string) ([]auction.WrappedCredit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.credits[recipient]
	result := make([]auction.WrappedCredit, 0, len(entries))
	for _, c := range entries {
		c.Amount = auction.CopyAmount(c.Amount)
		result = append(result, c)
	}
	return result, nil
}
