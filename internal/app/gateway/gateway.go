// Package gateway declares the external collaborator contracts the auction
// engine settles value through: asset custody, currency movement with a
// wrapped fallback rail, and royalty capability resolution. Implementations
// live behind these interfaces; the engine never talks to a chain directly.
package gateway

import (
	"context"
	"errors"
	"math/big"

	"github.com/R3E-Network/auction_house/internal/app/domain/auction"
)

// ErrUnauthorized is returned by gateways when a custody or release call is
// not permitted for the given parties.
var ErrUnauthorized = errors.New("gateway: transfer not authorized")

// ErrInsufficientFunds is returned when a payer cannot cover a collection.
var ErrInsufficientFunds = errors.New("gateway: insufficient funds")

// AssetGateway moves token custody and answers ownership queries.
type AssetGateway interface {
	// Supports reports whether the contract exposes the standard
	// ownership/transfer interface the engine requires.
	Supports(ctx context.Context, contract string) bool

	// OwnerOf returns the current owner of a token. Unknown tokens fail.
	OwnerOf(ctx context.Context, contract, tokenID string) (string, error)

	// IsApprovedFor reports whether operator may act on owner's tokens.
	IsApprovedFor(ctx context.Context, contract, owner, operator string) (bool, error)

	// Custody pulls the token from its owner into engine custody.
	Custody(ctx context.Context, contract, tokenID, from string) error

	// Release transfers a token out of engine custody.
	Release(ctx context.Context, contract, tokenID, to string) error
}

// CurrencyGateway collects and pays out value in the auction's currency.
// The empty currency identifier is the native settlement currency.
type CurrencyGateway interface {
	// Collect pulls amount from payer into engine escrow.
	Collect(ctx context.Context, currency, payer string, amount *big.Int) error

	// Pay sends amount from engine escrow to a recipient. A failure here is
	// the trigger for the wrapped fallback during refunds.
	Pay(ctx context.Context, currency, to string, amount *big.Int) error
}

// WrappedGateway is the fallback payment rail: value is converted into a
// wrapped balance the recipient can withdraw independently. Credits must not
// fail for an unreceptive recipient.
type WrappedGateway interface {
	Credit(ctx context.Context, currency, to string, amount *big.Int) error
}

// RoyaltyResolver probes an asset's payout capability and services the two
// capability-specific settlement paths.
type RoyaltyResolver interface {
	// Classify resolves the asset to exactly one capability variant, probing
	// RoyaltyAware before LegacySplit before Plain.
	Classify(ctx context.Context, contract string) (auction.Capability, error)

	// RoyaltyInfo returns the royalty recipient and amount for a sale price.
	// Only meaningful for RoyaltyAware contracts.
	RoyaltyInfo(ctx context.Context, contract, tokenID string, salePrice *big.Int) (string, *big.Int, error)

	// ValidBid reports whether the legacy split arithmetic can settle the
	// amount without losing value to truncation.
	ValidBid(ctx context.Context, contract, tokenID string, amount *big.Int) (bool, error)

	// PaySplit forwards amount into the asset's own share-splitting entry
	// point, which distributes to its registered shares in the given
	// currency.
	PaySplit(ctx context.Context, contract, tokenID, currency string, amount *big.Int) error
}
