package auction

import "errors"

// Guard errors. Every lifecycle precondition failure maps to exactly one of
// these so callers can branch with errors.Is; operations abort with no
// partial state change when any of them is returned.
var (
	ErrAssetInterfaceUnsupported = errors.New("asset contract does not support the ownership interface")
	ErrNotAuthorized             = errors.New("caller is not the token owner or an approved operator")
	ErrFeeTooHigh                = errors.New("curator fee percentage must be less than 100")
	ErrInvalidRecipient          = errors.New("funds recipient must be non-zero")
	ErrAuctionNotFound           = errors.New("auction not found")
	ErrNotCurator                = errors.New("caller is not the auction curator")
	ErrAuctionAlreadyStarted     = errors.New("auction has already started")
	ErrNotCuratorOrOwner         = errors.New("caller is not the curator or token owner")
	ErrAuctionNotApproved        = errors.New("auction has not been approved")
	ErrAuctionExpired            = errors.New("auction has expired")
	ErrBidBelowReserve           = errors.New("bid is below the reserve price")
	ErrBidIncrementTooSmall      = errors.New("bid does not meet the minimum increment over the current bid")
	ErrBidInvalidForSplit        = errors.New("bid amount is not settleable by the asset's share split")
	ErrAuctionNotStarted         = errors.New("auction has not started")
	ErrAuctionNotCompleted       = errors.New("auction has not completed")
	ErrNotCuratorOrCreator       = errors.New("caller is not the curator or auction creator")
)

// ErrIDSpaceExhausted is returned by a registry whose identifier counter
// would overflow. Identifiers are never reused, so this is fatal
// configuration, not a wraparound.
var ErrIDSpaceExhausted = errors.New("auction identifier space exhausted")
