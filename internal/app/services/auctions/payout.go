package auctions

import (
	"context"
	"fmt"
	"math/big"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
)

// Settlement is the resolved split of a winning bid. CuratorFee plus
// RoyaltyPaid plus OwnerProfit always equals Amount; the LegacySplit variant
// reports the forwarded share as OwnerProfit since the asset distributes it
// internally.
type Settlement struct {
	Winner           string
	Capability       auction.Capability
	Amount           *big.Int
	CuratorFee       *big.Int
	RoyaltyPaid      *big.Int
	RoyaltyRecipient string
	OwnerProfit      *big.Int
}

// resolvePayout computes the split without moving value. RoyaltyAware assets
// are asked for their royalty against the full sale price; a royalty that
// would not leave room for the curator fee fails settlement before any state
// changes.
func (s *Service) resolvePayout(ctx context.Context, a auction.Auction, capability auction.Capability) (Settlement, error) {
	st := Settlement{
		Winner:      a.Bidder,
		Capability:  capability,
		Amount:      auction.CopyAmount(a.Amount),
		CuratorFee:  auction.CuratorCut(a.Amount, a.Curator, a.CuratorFeePct),
		RoyaltyPaid: new(big.Int),
	}

	remainder := new(big.Int).Sub(st.Amount, st.CuratorFee)

	if capability == auction.CapabilityRoyaltyAware {
		recipient, royalty, err := s.gw.Royalties.RoyaltyInfo(ctx, a.TokenContract, a.TokenID, st.Amount)
		if err != nil {
			return Settlement{}, fmt.Errorf("royalty info: %w", err)
		}
		royalty = auction.CopyAmount(royalty)
		if royalty.Cmp(remainder) > 0 {
			return Settlement{}, fmt.Errorf("royalty %s exceeds distributable proceeds %s", royalty, remainder)
		}
		st.RoyaltyRecipient = recipient
		st.RoyaltyPaid = royalty
		remainder.Sub(remainder, royalty)
	}

	st.OwnerProfit = remainder
	return st, nil
}

// disburse moves the resolved split out of escrow. Called only after the
// registry record is gone.
func (s *Service) disburse(ctx context.Context, a auction.Auction, st Settlement) error {
	if st.CuratorFee.Sign() > 0 {
		if err := s.gw.Currency.Pay(ctx, a.Currency, a.Curator, st.CuratorFee); err != nil {
			return fmt.Errorf("pay curator fee: %w", err)
		}
	}

	switch st.Capability {
	case auction.CapabilityRoyaltyAware:
		if st.RoyaltyPaid.Sign() > 0 {
			if err := s.gw.Currency.Pay(ctx, a.Currency, st.RoyaltyRecipient, st.RoyaltyPaid); err != nil {
				return fmt.Errorf("pay royalty: %w", err)
			}
		}
		if st.OwnerProfit.Sign() > 0 {
			if err := s.gw.Currency.Pay(ctx, a.Currency, a.FundsRecipient, st.OwnerProfit); err != nil {
				return fmt.Errorf("pay funds recipient: %w", err)
			}
		}
	case auction.CapabilityLegacySplit:
		// The asset's own split entry point distributes the forwarded share.
		if st.OwnerProfit.Sign() > 0 {
			if err := s.gw.Royalties.PaySplit(ctx, a.TokenContract, a.TokenID, a.Currency, st.OwnerProfit); err != nil {
				return fmt.Errorf("forward split: %w", err)
			}
		}
	default:
		if st.OwnerProfit.Sign() > 0 {
			if err := s.gw.Currency.Pay(ctx, a.Currency, a.FundsRecipient, st.OwnerProfit); err != nil {
				return fmt.Errorf("pay funds recipient: %w", err)
			}
		}
	}
	return nil
}
