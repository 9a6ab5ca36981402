// Package payments implements the value-transfer collaborator for standalone
// deployments: a simple account book whose PayOut is all-or-nothing.
package payments

import (
	"errors"
	"math/big"
	"sync"
)

var (
	ErrInvalidAmount     = errors.New("payments: amount must be positive")
	ErrInsufficientFunds = errors.New("payments: insufficient reserve")
)

// Book tracks the native value held by each account plus the reserve the
// engine pays claims from. Deposits into the reserve model the value attached
// to fill and bid operations.
type Book struct {
	mu       sync.Mutex
	accounts map[[20]byte]*big.Int
	reserve  *big.Int
}

// NewBook constructs an empty account book.
func NewBook() *Book {
	return &Book{
		accounts: make(map[[20]byte]*big.Int),
		reserve:  big.NewInt(0),
	}
}

// Deposit moves incoming value into the engine reserve. It models the
// payment attached atomically to a fill or bid operation.
func (b *Book) Deposit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reserve = new(big.Int).Add(b.reserve, amount)
	return nil
}

// PayOut transfers value from the reserve to the recipient's account. The
// transfer either fully succeeds or leaves both sides untouched.
func (b *Book) PayOut(to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reserve.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	b.reserve = new(big.Int).Sub(b.reserve, amount)
	current, ok := b.accounts[to]
	if !ok {
		current = big.NewInt(0)
	}
	b.accounts[to] = new(big.Int).Add(current, amount)
	return nil
}

// Balance returns the value held by the account.
func (b *Book) Balance(addr [20]byte) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.accounts[addr]; ok {
		return new(big.Int).Set(current)
	}
	return big.NewInt(0)
}

// Reserve returns the value currently held by the engine on behalf of open
// operations and unclaimed ledger balances.
func (b *Book) Reserve() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.reserve)
}
