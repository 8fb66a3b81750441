// Package auctions implements the reserve-price auction lifecycle: create,
// approve, reprice, bid, end, cancel. Operations validate their guards, then
// mutate the registry, then move value through the gateways, in that order,
// so a reentrant call triggered by an outbound transfer always observes the
// post-mutation state.
package auctions

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
	"github.com/R3E-Network/auction_house/internal/app/events"
	"github.com/R3E-Network/auction_house/internal/app/gateway"
	"github.com/R3E-Network/auction_house/internal/app/metrics"
	"github.com/R3E-Network/auction_house/internal/app/storage"
	"github.com/R3E-Network/auction_house/pkg/logger"
)

// Gateways bundles the external collaborators the lifecycle settles through.
type Gateways struct {
	Assets    gateway.AssetGateway
	Currency  gateway.CurrencyGateway
	Wrapped   gateway.WrappedGateway
	Royalties gateway.RoyaltyResolver
}

// Service is the auction state machine over a registry and the gateways.
type Service struct {
	store   storage.AuctionStore
	credits storage.CreditStore
	gw      Gateways
	events  events.Log
	log     *logger.Logger
	now     func() time.Time
}

// New constructs the lifecycle service. credits may be nil to skip the
// wrapped-credit audit trail; eventLog may be nil to discard events.
func New(store storage.AuctionStore, credits storage.CreditStore, gw Gateways, eventLog events.Log, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("auctions")
	}
	if eventLog == nil {
		eventLog = events.NoOpLog{}
	}
	return &Service{
		store:   store,
		credits: credits,
		gw:      gw,
		events:  eventLog,
		log:     log,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Used by tests to control expiry and
// the extension window.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateParams are the caller-supplied fields of a new auction.
type CreateParams struct {
	TokenContract  string
	TokenID        string
	Duration       time.Duration
	ReservePrice   *big.Int
	Curator        string
	CuratorFeePct  uint8
	FundsRecipient string
	Currency       string
}

// CreateAuction takes the token into custody and registers a new auction.
// The caller must be the token's owner or an approved operator. The auction
// starts approved when there is no curator or the curator is the caller.
func (s *Service) CreateAuction(ctx context.Context, caller string, p CreateParams) (auction.Auction, error) {
	if !s.gw.Assets.Supports(ctx, p.TokenContract) {
		return auction.Auction{}, auction.ErrAssetInterfaceUnsupported
	}

	owner, err := s.gw.Assets.OwnerOf(ctx, p.TokenContract, p.TokenID)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("%w: %v", auction.ErrNotAuthorized, err)
	}
	if caller != owner {
		approved, err := s.gw.Assets.IsApprovedFor(ctx, p.TokenContract, owner, caller)
		if err != nil || !approved {
			return auction.Auction{}, auction.ErrNotAuthorized
		}
	}

	if p.CuratorFeePct > auction.MaxCuratorFeePct {
		return auction.Auction{}, auction.ErrFeeTooHigh
	}
	if p.FundsRecipient == auction.ZeroAddress {
		return auction.Auction{}, auction.ErrInvalidRecipient
	}

	if err := s.gw.Assets.Custody(ctx, p.TokenContract, p.TokenID, owner); err != nil {
		return auction.Auction{}, fmt.Errorf("take custody: %w", err)
	}

	a := auction.Auction{
		TokenContract:  p.TokenContract,
		TokenID:        p.TokenID,
		Duration:       p.Duration,
		ReservePrice:   auction.CopyAmount(p.ReservePrice),
		Curator:        p.Curator,
		CuratorFeePct:  p.CuratorFeePct,
		TokenOwner:     owner,
		FundsRecipient: p.FundsRecipient,
		Currency:       p.Currency,
		Approved:       p.Curator == auction.ZeroAddress || p.Curator == caller,
		Amount:         new(big.Int),
	}

	a, err = s.store.CreateAuction(ctx, a)
	if err != nil {
		// The token is already in custody; hand it back rather than strand it.
		if releaseErr := s.gw.Assets.Release(ctx, p.TokenContract, p.TokenID, owner); releaseErr != nil {
			s.log.WithError(releaseErr).Errorf("could not return %s/%s after registry failure", p.TokenContract, p.TokenID)
		}
		return auction.Auction{}, err
	}

	s.events.Append(events.Event{
		Type:           events.TypeAuctionCreated,
		AuctionID:      a.ID,
		TokenContract:  a.TokenContract,
		TokenID:        a.TokenID,
		Duration:       a.Duration,
		ReservePrice:   a.ReservePrice.String(),
		Curator:        a.Curator,
		CuratorFeePct:  a.CuratorFeePct,
		TokenOwner:     a.TokenOwner,
		FundsRecipient: a.FundsRecipient,
		Currency:       a.Currency,
		Approved:       a.Approved,
	})
	s.log.WithField("auction_id", a.ID).
		WithField("token", a.TokenContract+"/"+a.TokenID).
		WithField("approved", a.Approved).
		Info("auction created")
	metrics.RecordAuctionCreated()
	return a, nil
}

// SetApproval opens or closes bidding. Only the curator may call it, and only
// before the first bid.
func (s *Service) SetApproval(ctx context.Context, caller string, id uint64, approved bool) (auction.Auction, error) {
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return auction.Auction{}, err
	}
	if caller != a.Curator {
		return auction.Auction{}, auction.ErrNotCurator
	}
	if a.Started() {
		return auction.Auction{}, auction.ErrAuctionAlreadyStarted
	}

	a.Approved = approved
	a, err = s.store.UpdateAuction(ctx, a)
	if err != nil {
		return auction.Auction{}, err
	}

	s.events.Append(events.Event{
		Type:          events.TypeApprovalUpdated,
		AuctionID:     a.ID,
		TokenContract: a.TokenContract,
		TokenID:       a.TokenID,
		Approved:      a.Approved,
	})
	s.log.WithField("auction_id", a.ID).WithField("approved", approved).Info("auction approval updated")
	return a, nil
}

// SetReservePrice overwrites the reserve. The curator or the token owner may
// call it, only before the first bid.
func (s *Service) SetReservePrice(ctx context.Context, caller string, id uint64, reserve *big.Int) (auction.Auction, error) {
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return auction.Auction{}, err
	}
	if caller != a.Curator && caller != a.TokenOwner {
		return auction.Auction{}, auction.ErrNotCuratorOrOwner
	}
	if a.Started() {
		return auction.Auction{}, auction.ErrAuctionAlreadyStarted
	}

	a.ReservePrice = auction.CopyAmount(reserve)
	a, err = s.store.UpdateAuction(ctx, a)
	if err != nil {
		return auction.Auction{}, err
	}

	s.events.Append(events.Event{
		Type:          events.TypeReservePriceUpdated,
		AuctionID:     a.ID,
		TokenContract: a.TokenContract,
		TokenID:       a.TokenID,
		ReservePrice:  a.ReservePrice.String(),
	})
	s.log.WithField("auction_id", a.ID).WithField("reserve", a.ReservePrice.String()).Info("auction reserve price updated")
	return a, nil
}

// CreateBid escrows amount from bidder as the new highest bid. The first
// accepted bid starts the clock; a bid landing inside the trailing extension
// window pushes the close out to now plus the window. A previous bidder is
// refunded after the new state is persisted; if the refund cannot be
// delivered it is credited to their wrapped balance instead of failing the
// bid.
func (s *Service) CreateBid(ctx context.Context, bidder string, id uint64, amount *big.Int) (auction.Auction, error) {
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return auction.Auction{}, err
	}
	if !a.Approved {
		return auction.Auction{}, auction.ErrAuctionNotApproved
	}

	now := s.now().UTC()
	if a.Expired(now) {
		return auction.Auction{}, auction.ErrAuctionExpired
	}

	amount = auction.CopyAmount(amount)
	if !a.Started() {
		if amount.Cmp(a.ReservePrice) < 0 {
			return auction.Auction{}, auction.ErrBidBelowReserve
		}
	} else if amount.Cmp(auction.MinNextBid(a.Amount)) < 0 {
		return auction.Auction{}, auction.ErrBidIncrementTooSmall
	}

	// Amounts the legacy split cannot settle later are rejected now.
	capability, err := s.gw.Royalties.Classify(ctx, a.TokenContract)
	if err != nil {
		return auction.Auction{}, fmt.Errorf("classify asset: %w", err)
	}
	if capability == auction.CapabilityLegacySplit {
		ok, err := s.gw.Royalties.ValidBid(ctx, a.TokenContract, a.TokenID, amount)
		if err != nil {
			return auction.Auction{}, fmt.Errorf("validate split bid: %w", err)
		}
		if !ok {
			return auction.Auction{}, auction.ErrBidInvalidForSplit
		}
	}

	// Escrow the incoming amount before touching state: a failed collection
	// aborts with nothing changed.
	if err := s.gw.Currency.Collect(ctx, a.Currency, bidder, amount); err != nil {
		return auction.Auction{}, fmt.Errorf("collect bid: %w", err)
	}

	prevBidder, prevAmount := a.Bidder, a.Amount

	firstBid := !a.Started()
	if firstBid {
		a.FirstBidTime = now
	}
	a.Bidder = bidder
	a.Amount = amount

	extension, extended := auction.Extension(a.EndTime(), now)
	if extended {
		a.Duration += extension
	}

	a, err = s.store.UpdateAuction(ctx, a)
	if err != nil {
		return auction.Auction{}, err
	}

	// Outbound refund strictly after the registry holds the new state.
	s.refund(ctx, a, prevBidder, prevAmount)

	s.events.Append(events.Event{
		Type:           events.TypeAuctionBid,
		AuctionID:      a.ID,
		TokenContract:  a.TokenContract,
		TokenID:        a.TokenID,
		Bidder:         a.Bidder,
		Amount:         a.Amount.String(),
		PreviousBidder: prevBidder,
		FirstBid:       firstBid,
		Extended:       extended,
	})
	if extended {
		s.events.Append(events.Event{
			Type:          events.TypeDurationExtended,
			AuctionID:     a.ID,
			TokenContract: a.TokenContract,
			TokenID:       a.TokenID,
			Duration:      a.Duration,
		})
	}
	s.log.WithField("auction_id", a.ID).
		WithField("bidder", bidder).
		WithField("amount", a.Amount.String()).
		WithField("extended", extended).
		Info("bid accepted")
	metrics.RecordBid(extended)
	return a, nil
}

// EndAuction settles a completed auction: proceeds are split per the asset's
// payout capability, the record is deleted before any value leaves escrow,
// and the token is released to the winner last. A winner who cannot receive
// the token does not unwind settlement; the token stays in custody for
// reclaim and the failure is surfaced.
func (s *Service) EndAuction(ctx context.Context, id uint64) (Settlement, error) {
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return Settlement{}, err
	}
	if !a.Started() {
		return Settlement{}, auction.ErrAuctionNotStarted
	}
	if !a.Expired(s.now().UTC()) {
		return Settlement{}, auction.ErrAuctionNotCompleted
	}

	capability, err := s.gw.Royalties.Classify(ctx, a.TokenContract)
	if err != nil {
		return Settlement{}, fmt.Errorf("classify asset: %w", err)
	}
	st, err := s.resolvePayout(ctx, a, capability)
	if err != nil {
		return Settlement{}, err
	}

	// The record dies before escrow moves: a reentrant call triggered by a
	// payout observes AuctionNotFound.
	if err := s.store.DeleteAuction(ctx, a.ID); err != nil {
		return Settlement{}, err
	}

	if err := s.disburse(ctx, a, st); err != nil {
		return Settlement{}, err
	}

	s.events.Append(events.Event{
		Type:           events.TypeAuctionEnded,
		AuctionID:      a.ID,
		TokenContract:  a.TokenContract,
		TokenID:        a.TokenID,
		TokenOwner:     a.TokenOwner,
		Curator:        a.Curator,
		FundsRecipient: a.FundsRecipient,
		Winner:         st.Winner,
		Amount:         st.Amount.String(),
		CuratorFee:     st.CuratorFee.String(),
		OwnerProfit:    st.OwnerProfit.String(),
		RoyaltyPaid:    st.RoyaltyPaid.String(),
	})
	s.log.WithField("auction_id", a.ID).
		WithField("winner", st.Winner).
		WithField("amount", st.Amount.String()).
		WithField("capability", string(st.Capability)).
		Info("auction ended")
	metrics.RecordSettlement(string(st.Capability))

	if err := s.gw.Assets.Release(ctx, a.TokenContract, a.TokenID, st.Winner); err != nil {
		s.log.WithError(err).Warnf("winner %s cannot receive %s/%s; token held for reclaim", st.Winner, a.TokenContract, a.TokenID)
		return st, fmt.Errorf("release token to winner (held in custody for reclaim): %w", err)
	}
	return st, nil
}

// CancelAuction returns the token to its owner and deletes the record. Only
// possible before the first bid, by the curator or the token owner.
func (s *Service) CancelAuction(ctx context.Context, caller string, id uint64) error {
	a, err := s.store.GetAuction(ctx, id)
	if err != nil {
		return err
	}
	if a.Started() {
		return auction.ErrAuctionAlreadyStarted
	}
	if caller != a.Curator && caller != a.TokenOwner {
		return auction.ErrNotCuratorOrCreator
	}

	if err := s.store.DeleteAuction(ctx, a.ID); err != nil {
		return err
	}

	if err := s.gw.Assets.Release(ctx, a.TokenContract, a.TokenID, a.TokenOwner); err != nil {
		return fmt.Errorf("return token to owner: %w", err)
	}

	s.events.Append(events.Event{
		Type:          events.TypeAuctionCanceled,
		AuctionID:     a.ID,
		TokenContract: a.TokenContract,
		TokenID:       a.TokenID,
		TokenOwner:    a.TokenOwner,
	})
	s.log.WithField("auction_id", a.ID).Info("auction canceled")
	metrics.RecordCancellation()
	return nil
}

// GetAuction retrieves one auction by identifier.
func (s *Service) GetAuction(ctx context.Context, id uint64) (auction.Auction, error) {
	return s.store.GetAuction(ctx, id)
}

// ListAuctions returns all live auctions.
func (s *Service) ListAuctions(ctx context.Context) ([]auction.Auction, error) {
	return s.store.ListAuctions(ctx)
}

// ListCredits returns the wrapped-credit audit trail for a recipient.
func (s *Service) ListCredits(ctx context.Context, recipient string) ([]auction.WrappedCredit, error) {
	if s.credits == nil {
		return nil, nil
	}
	return s.credits.ListCredits(ctx, recipient)
}
