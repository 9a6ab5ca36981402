package market

import (
	"errors"
	"fmt"
)

// Category errors group the concrete failure conditions below so callers can
// match on either the exact condition or its class via errors.Is.
var (
	ErrAuthorization = errors.New("market: unauthorized")
	ErrNotFound      = errors.New("market: not found")
	ErrStateConflict = errors.New("market: state conflict")
	ErrValueMismatch = errors.New("market: value mismatch")
	ErrArithmetic    = errors.New("market: arithmetic bounds exceeded")
	ErrExternalCall  = errors.New("market: external call failed")
)

var (
	ErrNotApprovedOrOwner = fmt.Errorf("%w: caller is not owner nor approved", ErrAuthorization)
	ErrNotOfferOwner      = fmt.Errorf("%w: caller is not the offer seller", ErrAuthorization)
	ErrNotAuctionOwner    = fmt.Errorf("%w: caller is not the auction seller", ErrAuthorization)
	ErrSellerCannotFill   = fmt.Errorf("%w: the seller cannot fill their own offer", ErrAuthorization)
	ErrSellerCannotBid    = fmt.Errorf("%w: the seller cannot bid on their own auction", ErrAuthorization)

	ErrOfferNotFound   = fmt.Errorf("%w: offer does not exist", ErrNotFound)
	ErrAuctionNotFound = fmt.Errorf("%w: no active auction for token", ErrNotFound)

	ErrOfferResolved   = fmt.Errorf("%w: offer already fulfilled or cancelled", ErrStateConflict)
	ErrAuctionExists   = fmt.Errorf("%w: token already has an active auction", ErrStateConflict)
	ErrAuctionEnded    = fmt.Errorf("%w: auction has ended", ErrStateConflict)
	ErrAuctionNotEnded = fmt.Errorf("%w: auction has not ended yet", ErrStateConflict)
	ErrBidExists       = fmt.Errorf("%w: auction already has a bid", ErrStateConflict)
	ErrNoFundsToClaim  = fmt.Errorf("%w: no funds to claim", ErrStateConflict)

	ErrPriceMismatch    = fmt.Errorf("%w: paid amount must match the offer price", ErrValueMismatch)
	ErrBidTooLow        = fmt.Errorf("%w: bid below the minimum increment", ErrValueMismatch)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValueMismatch)
	ErrBalanceOverflow  = fmt.Errorf("%w: balance overflow", ErrArithmetic)
	ErrInvalidDuration  = fmt.Errorf("%w: duration must be positive", ErrValueMismatch)
	errStateNotSet      = errors.New("market engine: state not configured")
	errRegistryNotSet   = errors.New("market engine: asset registry not configured")
	errPaymasterNotSet  = errors.New("market engine: paymaster not configured")
	errEscrowAddrNotSet = errors.New("market engine: escrow address not configured")
)

// externalErr wraps a collaborator failure so it matches ErrExternalCall while
// preserving the underlying cause for logs.
func externalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternalCall, op, err)
}
