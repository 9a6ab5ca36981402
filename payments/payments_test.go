package payments

import (
	"errors"
	"math/big"
	"testing"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestDepositGrowsReserve(t *testing.T) {
	book := NewBook()
	if err := book.Deposit(big.NewInt(500)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := book.Deposit(big.NewInt(250)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got := book.Reserve(); got.String() != "750" {
		t.Fatalf("expected reserve 750, got %s", got)
	}
	if err := book.Deposit(big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := book.Deposit(nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestPayOutIsAllOrNothing(t *testing.T) {
	book := NewBook()
	recipient := addr(0x01)
	if err := book.Deposit(big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := book.PayOut(recipient, big.NewInt(101)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient reserve, got %v", err)
	}
	if got := book.Reserve(); got.String() != "100" {
		t.Fatalf("reserve must be untouched by a refused payout, got %s", got)
	}
	if got := book.Balance(recipient); got.Sign() != 0 {
		t.Fatalf("recipient must be untouched by a refused payout, got %s", got)
	}

	if err := book.PayOut(recipient, big.NewInt(60)); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if err := book.PayOut(recipient, big.NewInt(40)); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if got := book.Balance(recipient); got.String() != "100" {
		t.Fatalf("expected balance 100, got %s", got)
	}
	if got := book.Reserve(); got.Sign() != 0 {
		t.Fatalf("expected drained reserve, got %s", got)
	}
}

func TestPayOutRejectsNonPositiveAmount(t *testing.T) {
	book := NewBook()
	if err := book.PayOut(addr(0x01), big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestBalanceCopiesAreIndependent(t *testing.T) {
	book := NewBook()
	recipient := addr(0x01)
	if err := book.Deposit(big.NewInt(10)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := book.PayOut(recipient, big.NewInt(10)); err != nil {
		t.Fatalf("payout: %v", err)
	}
	balance := book.Balance(recipient)
	balance.SetInt64(0)
	if got := book.Balance(recipient); got.String() != "10" {
		t.Fatalf("callers must not mutate the book, got %s", got)
	}
}
