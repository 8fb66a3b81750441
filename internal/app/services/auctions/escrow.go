package auctions

import (
	"context"
	"math/big"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
	"github.com/R3E-Network/auction_house/internal/app/metrics"
)

// refund returns an outbid bidder's escrowed amount. Direct payment is
// attempted first; when the recipient rejects it, the amount is credited to
// their wrapped balance instead. A refund never fails the bid that displaced
// it, so errors stop here.
func (s *Service) refund(ctx context.Context, a auction.Auction, bidder string, amount *big.Int) {
	if bidder == auction.ZeroAddress || amount == nil || amount.Sign() == 0 {
		return
	}

	err := s.gw.Currency.Pay(ctx, a.Currency, bidder, amount)
	if err == nil {
		return
	}
	s.log.WithError(err).Warnf("direct refund to %s failed; crediting wrapped balance", bidder)
	metrics.RecordWrappedCredit()

	if creditErr := s.gw.Wrapped.Credit(ctx, a.Currency, bidder, amount); creditErr != nil {
		// Escrow still holds the funds; the audit record below is the trail
		// for manual recovery.
		s.log.WithError(creditErr).Errorf("wrapped credit to %s failed; %s remains in escrow", bidder, amount)
	}

	if s.credits == nil {
		return
	}
	if _, recErr := s.credits.CreateCredit(ctx, auction.WrappedCredit{
		AuctionID: a.ID,
		Recipient: bidder,
		Currency:  a.Currency,
		Amount:    amount,
		Reason:    err.Error(),
	}); recErr != nil {
		s.log.WithError(recErr).Warn("could not record wrapped credit")
	}
}
