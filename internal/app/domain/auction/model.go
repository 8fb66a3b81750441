// Package auction defines the auction record, the payout capability variants,
// and the guard errors shared by the registry, the lifecycle service, and the
// HTTP layer.
package auction

import (
	"math/big"
	"time"
)

// ZeroAddress is the sentinel for "no party". An empty curator waives
// curation; the empty currency identifier selects the native settlement
// currency.
const ZeroAddress = ""

// NativeCurrency is the currency sentinel for native-coin auctions.
const NativeCurrency = ""

const (
	// MinBidIncrementPct is the minimum percentage a new bid must exceed the
	// previous one by.
	MinBidIncrementPct = 10

	// ExtensionWindow is the trailing period during which an accepted bid
	// pushes the end time out to now + ExtensionWindow.
	ExtensionWindow = 15 * time.Minute

	// MaxCuratorFeePct is the largest accepted curator fee percentage.
	MaxCuratorFeePct = 99
)

// Capability classifies how sale proceeds are distributed at settlement.
type Capability string

const (
	// CapabilityRoyaltyAware assets report a royalty recipient and amount for
	// a given sale price.
	CapabilityRoyaltyAware Capability = "royalty_aware"

	// CapabilityLegacySplit assets distribute proceeds themselves through
	// their own share-splitting entry point.
	CapabilityLegacySplit Capability = "legacy_split"

	// CapabilityPlain assets have no royalty behavior; proceeds go to the
	// funds recipient.
	CapabilityPlain Capability = "plain"
)

// Auction is one active reserve-price auction for a single token. Records
// exist in the registry from creation until settlement or cancellation;
// deletion is total, there is no tombstone state.
type Auction struct {
	ID            uint64
	TokenContract string
	TokenID       string

	// Duration is how long the auction runs once the first bid lands. It may
	// grow through the extension window rule.
	Duration time.Duration

	// FirstBidTime is zero until the first accepted bid.
	FirstBidTime time.Time

	ReservePrice   *big.Int
	Curator        string
	CuratorFeePct  uint8
	TokenOwner     string
	FundsRecipient string
	Currency       string

	// Approved gates bidding. Forced true at creation when there is no
	// curator or the curator is the creator.
	Approved bool

	// Bidder and Amount track the current highest bid. Amount is zero until
	// the first bid.
	Bidder string
	Amount *big.Int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Started reports whether bidding has begun.
func (a Auction) Started() bool {
	return !a.FirstBidTime.IsZero()
}

// EndTime is the instant the auction closes. Meaningless before Started.
func (a Auction) EndTime() time.Time {
	return a.FirstBidTime.Add(a.Duration)
}

// Expired reports whether the auction has started and its window has passed.
func (a Auction) Expired(now time.Time) bool {
	return a.Started() && !now.Before(a.EndTime())
}

// Clone returns a deep copy so callers never share big.Int pointers with the
// registry.
func (a Auction) Clone() Auction {
	a.ReservePrice = CopyAmount(a.ReservePrice)
	a.Amount = CopyAmount(a.Amount)
	return a
}

// CuratorCut is the curator's share of a winning amount: amount * pct / 100,
// truncating. Zero when there is no curator.
func CuratorCut(amount *big.Int, curator string, feePct uint8) *big.Int {
	if curator == ZeroAddress || amount == nil {
		return new(big.Int)
	}
	cut := new(big.Int).Mul(amount, big.NewInt(int64(feePct)))
	return cut.Div(cut, big.NewInt(100))
}

// MinNextBid is the smallest acceptable outbid over the current amount:
// current + current * MinBidIncrementPct / 100, truncating.
func MinNextBid(current *big.Int) *big.Int {
	inc := new(big.Int).Mul(current, big.NewInt(MinBidIncrementPct))
	inc.Div(inc, big.NewInt(100))
	return inc.Add(inc, current)
}

// Extension returns the duration to add so the auction closes at exactly
// now + ExtensionWindow, and whether the bid falls inside the window at all.
func Extension(endTime, now time.Time) (time.Duration, bool) {
	remaining := endTime.Sub(now)
	if remaining >= ExtensionWindow {
		return 0, false
	}
	return ExtensionWindow - remaining, true
}

// CopyAmount copies a monetary amount, mapping nil to zero.
func CopyAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// WrappedCredit is the audit record written when a refund could not be
// delivered directly and was credited to the bidder's wrapped balance
// instead.
type WrappedCredit struct {
	ID        string
	AuctionID uint64
	Recipient string
	Currency  string
	Amount    *big.Int
	Reason    string
	CreatedAt time.Time
}
