package market

import "math/big"

// Offer is a fixed-price listing of a single asset. The engine owns the record
// for its entire lifetime; the listed asset stays in the engine's custody while
// the offer is active.
type Offer struct {
	ID        uint64   `json:"offerId"`
	TokenID   uint64   `json:"tokenId"`
	Seller    [20]byte `json:"seller"`
	Price     *big.Int `json:"price"`
	Fulfilled bool     `json:"fulfilled"`
	Cancelled bool     `json:"cancelled"`
	CreatedAt int64    `json:"createdAt"`
}

// Active reports whether the offer can still be filled, updated or cancelled.
// Fulfilled and cancelled are mutually exclusive terminal states.
func (o *Offer) Active() bool {
	if o == nil {
		return false
	}
	return !o.Fulfilled && !o.Cancelled
}

// Clone returns a deep copy of the offer so callers can safely mutate the copy
// without affecting the stored instance.
func (o *Offer) Clone() *Offer {
	if o == nil {
		return nil
	}
	clone := *o
	if o.Price != nil {
		clone.Price = new(big.Int).Set(o.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// AuctionStatus represents the lifecycle states of a timed auction. Terminal
// states free the token's auction slot.
type AuctionStatus uint8

const (
	AuctionActive AuctionStatus = iota
	AuctionSettled
	AuctionCancelled
)

// Valid reports whether the status value is within the supported range.
func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionActive, AuctionSettled, AuctionCancelled:
		return true
	default:
		return false
	}
}

// Auction is a time-bounded ascending-bid listing. At most one auction per
// token may be active at a time; the end time is fixed at creation and never
// extended by bidding.
type Auction struct {
	TokenID       uint64        `json:"tokenId"`
	Seller        [20]byte      `json:"seller"`
	ReservePrice  *big.Int      `json:"reservePrice"`
	EndTime       int64         `json:"endTime"`
	HighestBid    *big.Int      `json:"highestBid"`
	HighestBidder [20]byte      `json:"highestBidder"`
	Status        AuctionStatus `json:"status"`
	CreatedAt     int64         `json:"createdAt"`
}

// Active reports whether the auction still accepts bids or cancellation.
func (a *Auction) Active() bool {
	if a == nil {
		return false
	}
	return a.Status == AuctionActive
}

// HasBid reports whether any bid has been placed on the auction.
func (a *Auction) HasBid() bool {
	if a == nil || a.HighestBid == nil {
		return false
	}
	return a.HighestBid.Sign() > 0
}

// Clone returns a deep copy of the auction record.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.ReservePrice != nil {
		clone.ReservePrice = new(big.Int).Set(a.ReservePrice)
	} else {
		clone.ReservePrice = big.NewInt(0)
	}
	if a.HighestBid != nil {
		clone.HighestBid = new(big.Int).Set(a.HighestBid)
	} else {
		clone.HighestBid = big.NewInt(0)
	}
	return &clone
}
