package market

import "math/big"

const secondsPerHour = 3600

// MakeAuction escrows the asset and opens a timed ascending-bid listing. The
// end time is fixed here and never moves; at most one auction per token may
// be active at a time.
func (e *Engine) MakeAuction(tokenID uint64, reservePrice *big.Int, durationHours int64, caller [20]byte) (*Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	reserve := cloneBigInt(reservePrice)
	if reserve.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := checkBalanceBounds(reserve); err != nil {
		return nil, err
	}
	if durationHours <= 0 {
		return nil, ErrInvalidDuration
	}
	existing, ok, err := e.state.AuctionGet(tokenID)
	if err != nil {
		return nil, err
	}
	if ok && existing.Active() {
		return nil, ErrAuctionExists
	}
	approved, err := e.registry.IsApprovedOrOwner(tokenID, caller)
	if err != nil {
		return nil, externalErr("approval check", err)
	}
	if !approved {
		return nil, ErrNotApprovedOrOwner
	}
	if err := e.registry.TransferCustody(tokenID, caller, e.escrowAddr); err != nil {
		return nil, externalErr("take custody", err)
	}
	now := e.now()
	auction := &Auction{
		TokenID:      tokenID,
		Seller:       caller,
		ReservePrice: reserve,
		EndTime:      now + durationHours*secondsPerHour,
		HighestBid:   big.NewInt(0),
		Status:       AuctionActive,
		CreatedAt:    now,
	}
	if err := e.state.AuctionPut(auction); err != nil {
		return nil, e.returnCustody(tokenID, caller, err)
	}
	e.emit(AuctionCreated{TokenID: tokenID, Seller: caller, ReservePrice: reserve, EndTime: auction.EndTime})
	return auction.Clone(), nil
}

// CancelAuction withdraws an auction that has not attracted a bid and returns
// the asset to the seller. Once any bid exists the auction can no longer be
// withdrawn unilaterally.
func (e *Engine) CancelAuction(tokenID uint64, caller [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	auction, ok, err := e.state.AuctionGet(tokenID)
	if err != nil {
		return err
	}
	if !ok || !auction.Active() {
		return ErrAuctionNotFound
	}
	if auction.Seller != caller {
		return ErrNotAuctionOwner
	}
	if auction.HasBid() {
		return ErrBidExists
	}
	prev := auction.Clone()
	auction.Status = AuctionCancelled
	if err := e.state.AuctionPut(auction); err != nil {
		return err
	}
	if err := e.registry.TransferCustody(tokenID, e.escrowAddr, caller); err != nil {
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return externalErr("custody return failed and auction restore failed", putErr)
		}
		return externalErr("return custody", err)
	}
	e.emit(AuctionCancelledEvent{TokenID: tokenID, Seller: caller})
	return nil
}

// MakeBid raises the standing bid on an active auction. The first bid merely
// has to be positive; every later bid must reach 110% of the standing bid.
// A displaced bid is split: 90% returns to the outbid party, 10% accrues to
// the seller as a non-refundable engagement fee.
func (e *Engine) MakeBid(tokenID uint64, bidder [20]byte, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	auction, ok, err := e.state.AuctionGet(tokenID)
	if err != nil {
		return err
	}
	if !ok || !auction.Active() {
		return ErrAuctionNotFound
	}
	if e.now() >= auction.EndTime {
		return ErrAuctionEnded
	}
	if auction.Seller == bidder {
		return ErrSellerCannotBid
	}
	bid := cloneBigInt(amount)
	if bid.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := checkBalanceBounds(bid); err != nil {
		return err
	}
	if auction.HasBid() && bid.Cmp(minNextBid(auction.HighestBid)) < 0 {
		return ErrBidTooLow
	}

	undo := func(cause error) error { return cause }
	if auction.HasBid() {
		refund, fee := splitDisplacedBid(auction.HighestBid)
		undo, err = e.applyCredits([]ledgerCredit{
			{addr: auction.HighestBidder, amount: refund},
			{addr: auction.Seller, amount: fee},
		})
		if err != nil {
			return err
		}
	}
	prev := auction.Clone()
	auction.HighestBid = bid
	auction.HighestBidder = bidder
	if err := e.state.AuctionPut(auction); err != nil {
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return undo(putErr)
		}
		return undo(err)
	}
	e.emit(BidPlaced{TokenID: tokenID, HighestBid: bid, HighestBidder: bidder})
	return nil
}

// SettleAuction finishes an auction whose end time has passed. Anyone may
// trigger settlement. With a standing bid the asset goes to the highest
// bidder and the seller is credited with the bid net of the registry royalty;
// without bids the asset simply returns to the seller.
func (e *Engine) SettleAuction(tokenID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	auction, ok, err := e.state.AuctionGet(tokenID)
	if err != nil {
		return err
	}
	if !ok || !auction.Active() {
		return ErrAuctionNotFound
	}
	if e.now() < auction.EndTime {
		return ErrAuctionNotEnded
	}

	prev := auction.Clone()
	if !auction.HasBid() {
		auction.Status = AuctionSettled
		if err := e.state.AuctionPut(auction); err != nil {
			return err
		}
		if err := e.registry.TransferCustody(tokenID, e.escrowAddr, auction.Seller); err != nil {
			if putErr := e.state.AuctionPut(prev); putErr != nil {
				return externalErr("custody return failed and auction restore failed", putErr)
			}
			return externalErr("return custody", err)
		}
		e.emit(AuctionSettledEvent{TokenID: tokenID, Seller: auction.Seller, Amount: big.NewInt(0)})
		return nil
	}

	price := cloneBigInt(auction.HighestBid)
	recipient, royalty, err := e.registry.RoyaltyInfo(tokenID, price)
	if err != nil {
		return externalErr("royalty lookup", err)
	}
	royalty = cloneBigInt(royalty)
	if royalty.Sign() < 0 || royalty.Cmp(price) > 0 {
		return ErrValueMismatch
	}
	proceeds := price
	credits := make([]ledgerCredit, 0, 2)
	if recipient != auction.Seller && recipient != ([20]byte{}) && royalty.Sign() > 0 {
		proceeds = new(big.Int).Sub(price, royalty)
		credits = append(credits, ledgerCredit{addr: recipient, amount: royalty})
	}
	credits = append(credits, ledgerCredit{addr: auction.Seller, amount: proceeds})

	undo, err := e.applyCredits(credits)
	if err != nil {
		return err
	}
	auction.Status = AuctionSettled
	if err := e.state.AuctionPut(auction); err != nil {
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return undo(putErr)
		}
		return undo(err)
	}
	if err := e.registry.TransferCustody(tokenID, e.escrowAddr, auction.HighestBidder); err != nil {
		if putErr := e.state.AuctionPut(prev); putErr != nil {
			return undo(putErr)
		}
		return undo(externalErr("release custody", err))
	}
	e.emit(AuctionSettledEvent{
		TokenID: tokenID,
		Seller:  auction.Seller,
		Winner:  auction.HighestBidder,
		Amount:  price,
	})
	return nil
}
