package market

import (
	"math/big"
	"strconv"

	"nftmarket/crypto"
	"nftmarket/events"
)

const (
	EventTypeOfferCreated     = "market.offer.created"
	EventTypeOfferFilled      = "market.offer.filled"
	EventTypeOfferCancelled   = "market.offer.cancelled"
	EventTypeAuctionCreated   = "market.auction.created"
	EventTypeAuctionCancelled = "market.auction.cancelled"
	EventTypeBidPlaced        = "market.auction.bid"
	EventTypeAuctionSettled   = "market.auction.settled"
	EventTypeFundsClaimed     = "market.funds.claimed"
)

// OfferCreated is emitted when a fixed-price listing is stored and the asset
// enters escrow.
type OfferCreated struct {
	OfferID uint64
	TokenID uint64
	Seller  [20]byte
	Price   *big.Int
}

func (OfferCreated) EventType() string { return EventTypeOfferCreated }

func (e OfferCreated) Event() *events.Record {
	return &events.Record{
		Type: EventTypeOfferCreated,
		Attributes: map[string]string{
			"offerId": strconv.FormatUint(e.OfferID, 10),
			"tokenId": strconv.FormatUint(e.TokenID, 10),
			"seller":  crypto.FormatAddress(e.Seller),
			"price":   formatAmount(e.Price),
		},
	}
}

// OfferFilled is emitted when an offer settles and custody moves to the buyer.
type OfferFilled struct {
	OfferID uint64
	TokenID uint64
	Buyer   [20]byte
}

func (OfferFilled) EventType() string { return EventTypeOfferFilled }

func (e OfferFilled) Event() *events.Record {
	return &events.Record{
		Type: EventTypeOfferFilled,
		Attributes: map[string]string{
			"offerId": strconv.FormatUint(e.OfferID, 10),
			"tokenId": strconv.FormatUint(e.TokenID, 10),
			"buyer":   crypto.FormatAddress(e.Buyer),
		},
	}
}

// OfferCancelled is emitted when the seller withdraws an active offer.
type OfferCancelled struct {
	OfferID uint64
	TokenID uint64
}

func (OfferCancelled) EventType() string { return EventTypeOfferCancelled }

func (e OfferCancelled) Event() *events.Record {
	return &events.Record{
		Type: EventTypeOfferCancelled,
		Attributes: map[string]string{
			"offerId": strconv.FormatUint(e.OfferID, 10),
			"tokenId": strconv.FormatUint(e.TokenID, 10),
		},
	}
}

// AuctionCreated is emitted when a timed listing opens.
type AuctionCreated struct {
	TokenID      uint64
	Seller       [20]byte
	ReservePrice *big.Int
	EndTime      int64
}

func (AuctionCreated) EventType() string { return EventTypeAuctionCreated }

func (e AuctionCreated) Event() *events.Record {
	return &events.Record{
		Type: EventTypeAuctionCreated,
		Attributes: map[string]string{
			"tokenId":      strconv.FormatUint(e.TokenID, 10),
			"seller":       crypto.FormatAddress(e.Seller),
			"reservePrice": formatAmount(e.ReservePrice),
			"endTime":      strconv.FormatInt(e.EndTime, 10),
		},
	}
}

// AuctionCancelledEvent is emitted when an auction without bids is withdrawn.
type AuctionCancelledEvent struct {
	TokenID uint64
	Seller  [20]byte
}

func (AuctionCancelledEvent) EventType() string { return EventTypeAuctionCancelled }

func (e AuctionCancelledEvent) Event() *events.Record {
	return &events.Record{
		Type: EventTypeAuctionCancelled,
		Attributes: map[string]string{
			"tokenId": strconv.FormatUint(e.TokenID, 10),
			"seller":  crypto.FormatAddress(e.Seller),
		},
	}
}

// BidPlaced is emitted for every accepted bid, carrying the new standing bid.
type BidPlaced struct {
	TokenID       uint64
	HighestBid    *big.Int
	HighestBidder [20]byte
}

func (BidPlaced) EventType() string { return EventTypeBidPlaced }

func (e BidPlaced) Event() *events.Record {
	return &events.Record{
		Type: EventTypeBidPlaced,
		Attributes: map[string]string{
			"tokenId":       strconv.FormatUint(e.TokenID, 10),
			"highestBid":    formatAmount(e.HighestBid),
			"highestBidder": crypto.FormatAddress(e.HighestBidder),
		},
	}
}

// AuctionSettledEvent is emitted when an ended auction is settled. Winner is
// the zero identity when the auction closed without bids.
type AuctionSettledEvent struct {
	TokenID uint64
	Seller  [20]byte
	Winner  [20]byte
	Amount  *big.Int
}

func (AuctionSettledEvent) EventType() string { return EventTypeAuctionSettled }

func (e AuctionSettledEvent) Event() *events.Record {
	attrs := map[string]string{
		"tokenId": strconv.FormatUint(e.TokenID, 10),
		"seller":  crypto.FormatAddress(e.Seller),
		"amount":  formatAmount(e.Amount),
	}
	if e.Winner != ([20]byte{}) {
		attrs["winner"] = crypto.FormatAddress(e.Winner)
	}
	return &events.Record{Type: EventTypeAuctionSettled, Attributes: attrs}
}

// FundsClaimed is emitted when a ledger balance is withdrawn.
type FundsClaimed struct {
	User   [20]byte
	Amount *big.Int
}

func (FundsClaimed) EventType() string { return EventTypeFundsClaimed }

func (e FundsClaimed) Event() *events.Record {
	return &events.Record{
		Type: EventTypeFundsClaimed,
		Attributes: map[string]string{
			"user":   crypto.FormatAddress(e.User),
			"amount": formatAmount(e.Amount),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
