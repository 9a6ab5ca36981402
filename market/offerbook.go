package market

import "math/big"

// MakeOffer escrows the asset with the engine and records a fixed-price
// listing. The caller must have approved the engine for the token in the
// asset registry beforehand.
func (e *Engine) MakeOffer(tokenID uint64, price *big.Int, caller [20]byte) (*Offer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	amount := cloneBigInt(price)
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := checkBalanceBounds(amount); err != nil {
		return nil, err
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
	count, err := e.state.OfferCount()
	if err != nil {
		return nil, e.returnCustody(tokenID, caller, err)
	}
	offer := &Offer{
		ID:        count + 1,
		TokenID:   tokenID,
		Seller:    caller,
		Price:     amount,
		CreatedAt: e.now(),
	}
	if err := e.state.SetOfferCount(offer.ID); err != nil {
		return nil, e.returnCustody(tokenID, caller, err)
	}
	if err := e.state.OfferPut(offer); err != nil {
		if restoreErr := e.state.SetOfferCount(count); restoreErr != nil {
			return nil, e.returnCustody(tokenID, caller, restoreErr)
		}
		return nil, e.returnCustody(tokenID, caller, err)
	}
	e.emit(OfferCreated{OfferID: offer.ID, TokenID: tokenID, Seller: caller, Price: amount})
	return offer.Clone(), nil
}

// UpdateOffer changes the price of an active offer. Only the seller may
// update, and only while the offer has not been fulfilled or cancelled.
func (e *Engine) UpdateOffer(offerID uint64, newPrice *big.Int, caller [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return errStateNotSet
	}
	amount := cloneBigInt(newPrice)
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := checkBalanceBounds(amount); err != nil {
		return err
	}
	offer, ok, err := e.state.OfferGet(offerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferNotFound
	}
	if !offer.Active() {
		return ErrOfferResolved
	}
	if offer.Seller != caller {
		return ErrNotOfferOwner
	}
	offer.Price = amount
	return e.state.OfferPut(offer)
}

// FillOffer settles an active offer: the asset leaves escrow for the buyer
// and the sale proceeds are credited to the fund ledger, net of the registry
// royalty when the creator differs from the seller. The paid amount must
// match the listed price exactly.
func (e *Engine) FillOffer(offerID uint64, caller [20]byte, paid *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	offer, ok, err := e.state.OfferGet(offerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferNotFound
	}
	if !offer.Active() {
		return ErrOfferResolved
	}
	if offer.Seller == caller {
		return ErrSellerCannotFill
	}
	price := cloneBigInt(offer.Price)
	if paid == nil || paid.Cmp(price) != 0 {
		return ErrPriceMismatch
	}
	recipient, royalty, err := e.registry.RoyaltyInfo(offer.TokenID, price)
	if err != nil {
		return externalErr("royalty lookup", err)
	}
	royalty = cloneBigInt(royalty)
	if royalty.Sign() < 0 || royalty.Cmp(price) > 0 {
		return ErrValueMismatch
	}
	proceeds := price
	credits := make([]ledgerCredit, 0, 2)
	if recipient != offer.Seller && recipient != ([20]byte{}) && royalty.Sign() > 0 {
		proceeds = new(big.Int).Sub(price, royalty)
		credits = append(credits, ledgerCredit{addr: recipient, amount: royalty})
	}
	credits = append(credits, ledgerCredit{addr: offer.Seller, amount: proceeds})

	undo, err := e.applyCredits(credits)
	if err != nil {
		return err
	}
	prev := offer.Clone()
	offer.Fulfilled = true
	if err := e.state.OfferPut(offer); err != nil {
		return undo(err)
	}
	if err := e.registry.TransferCustody(offer.TokenID, e.escrowAddr, caller); err != nil {
		if putErr := e.state.OfferPut(prev); putErr != nil {
			return undo(putErr)
		}
		return undo(externalErr("release custody", err))
	}
	e.emit(OfferFilled{OfferID: offer.ID, TokenID: offer.TokenID, Buyer: caller})
	return nil
}

// CancelOffer terminates an active offer and returns the asset to the seller.
func (e *Engine) CancelOffer(offerID uint64, caller [20]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return err
	}
	offer, ok, err := e.state.OfferGet(offerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOfferNotFound
	}
	if !offer.Active() {
		return ErrOfferResolved
	}
	if offer.Seller != caller {
		return ErrNotOfferOwner
	}
	prev := offer.Clone()
	offer.Cancelled = true
	if err := e.state.OfferPut(offer); err != nil {
		return err
	}
	if err := e.registry.TransferCustody(offer.TokenID, e.escrowAddr, caller); err != nil {
		if putErr := e.state.OfferPut(prev); putErr != nil {
			return externalErr("custody return failed and offer restore failed", putErr)
		}
		return externalErr("return custody", err)
	}
	e.emit(OfferCancelled{OfferID: offer.ID, TokenID: offer.TokenID})
	return nil
}

type ledgerCredit struct {
	addr   [20]byte
	amount *big.Int
}

// applyCredits writes a batch of ledger credits and returns an undo function
// that restores the prior balances, wrapping the triggering error.
func (e *Engine) applyCredits(credits []ledgerCredit) (func(error) error, error) {
	snapshots := make(map[[20]byte]*big.Int, len(credits))
	for _, c := range credits {
		if _, ok := snapshots[c.addr]; ok {
			continue
		}
		balance, err := e.state.FundsGet(c.addr)
		if err != nil {
			return nil, err
		}
		snapshots[c.addr] = cloneBigInt(balance)
	}
	undo := func(cause error) error {
		for addr, balance := range snapshots {
			if err := e.state.FundsPut(addr, balance); err != nil {
				return externalErr("ledger rollback failed", err)
			}
		}
		return cause
	}
	for _, c := range credits {
		if err := e.credit(c.addr, c.amount); err != nil {
			return nil, undo(err)
		}
	}
	return undo, nil
}

// returnCustody hands the asset back to its previous holder after a failed
// listing attempt and surfaces the original cause.
func (e *Engine) returnCustody(tokenID uint64, to [20]byte, cause error) error {
	if err := e.registry.TransferCustody(tokenID, e.escrowAddr, to); err != nil {
		return externalErr("custody rollback failed", err)
	}
	return cause
}
