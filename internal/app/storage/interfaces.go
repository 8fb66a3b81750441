// Package storage declares the persistence contracts for the auction
// registry. The registry exclusively owns auction records: operations look a
// record up by identifier, mutate it, and release it; nothing else retains
// references across calls.
package storage

import (
	"context"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
)

// AuctionStore is the auction registry. CreateAuction allocates the next
// identifier from a monotonically increasing counter starting at 1;
// identifiers are never reused, and an exhausted counter fails with
// auction.ErrIDSpaceExhausted. Lookups against unknown, settled, or
// cancelled identifiers fail identically with auction.ErrAuctionNotFound.
type AuctionStore interface {
	CreateAuction(ctx context.Context, a auction.Auction) (auction.Auction, error)
	GetAuction(ctx context.Context, id uint64) (auction.Auction, error)
	UpdateAuction(ctx context.Context, a auction.Auction) (auction.Auction, error)
	DeleteAuction(ctx context.Context, id uint64) error
	ListAuctions(ctx context.Context) ([]auction.Auction, error)
}

// CreditStore persists the audit trail of wrapped-currency refund credits.
type CreditStore interface {
	CreateCredit(ctx context.Context, c auction.WrappedCredit) (auction.WrappedCredit, error)
	ListCredits(ctx context.Context, recipient string) ([]auction.WrappedCredit, error)
}
