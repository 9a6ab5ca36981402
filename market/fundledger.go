package market

import "math/big"

// credit adds amount to the recipient's withdrawable balance. The caller must
// hold the engine mutex. A zero amount is a no-op.
func (e *Engine) credit(addr [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amt.Sign() == 0 {
		return nil
	}
	balance, err := e.state.FundsGet(addr)
	if err != nil {
		return err
	}
	updated := new(big.Int).Add(cloneBigInt(balance), amt)
	if err := checkBalanceBounds(updated); err != nil {
		return err
	}
	return e.state.FundsPut(addr, updated)
}

// UserFunds returns the withdrawable balance accumulated for the supplied
// account.
func (e *Engine) UserFunds(addr [20]byte) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil, errStateNotSet
	}
	balance, err := e.state.FundsGet(addr)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}

// ClaimFunds zeroes the caller's ledger balance and pays the amount out via
// the payment collaborator. The claim is atomic: when the payout fails the
// balance is restored and the external failure surfaces to the caller.
func (e *Engine) ClaimFunds(caller [20]byte) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	balance, err := e.state.FundsGet(caller)
	if err != nil {
		return nil, err
	}
	amount := cloneBigInt(balance)
	if amount.Sign() == 0 {
		return nil, ErrNoFundsToClaim
	}
	if err := e.state.FundsPut(caller, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := e.payments.PayOut(caller, amount); err != nil {
		if restoreErr := e.state.FundsPut(caller, amount); restoreErr != nil {
			return nil, externalErr("payout failed and balance restore failed", restoreErr)
		}
		return nil, externalErr("payout", err)
	}
	e.emit(FundsClaimed{User: caller, Amount: amount})
	return amount, nil
}
