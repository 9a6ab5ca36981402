package market

import (
	"math/big"
	"testing"
)

func TestMinNextBid(t *testing.T) {
	cases := []struct {
		highest string
		want    string
	}{
		{"0", "0"},
		{"1", "1"},        // floor(1.1) keeps tiny bids contested
		{"9", "9"},        // floor(9.9)
		{"10", "11"},
		{"100", "110"},
		{"1500000000000000000", "1650000000000000000"},
		{"999999999999999999", "1099999999999999998"},
	}
	for _, tc := range cases {
		highest := weiAmount(tc.highest)
		got := minNextBid(highest)
		if got.String() != tc.want {
			t.Fatalf("minNextBid(%s) = %s, want %s", tc.highest, got, tc.want)
		}
		if highest.String() != tc.highest {
			t.Fatalf("minNextBid must not mutate its input, got %s", highest)
		}
	}
}

func TestSplitDisplacedBidPartitionsExactly(t *testing.T) {
	cases := []struct {
		displaced string
		refund    string
		fee       string
	}{
		{"0", "0", "0"},
		{"1", "1", "0"},   // fee floors to zero, nothing is lost
		{"7", "7", "0"},
		{"10", "9", "1"},
		{"99", "90", "9"},
		{"100", "90", "10"},
		{"1500000000000000000", "1350000000000000000", "150000000000000000"},
		{"1650000000000000001", "1485000000000000001", "165000000000000000"},
	}
	for _, tc := range cases {
		displaced := weiAmount(tc.displaced)
		refund, fee := splitDisplacedBid(displaced)
		if refund.String() != tc.refund || fee.String() != tc.fee {
			t.Fatalf("splitDisplacedBid(%s) = (%s, %s), want (%s, %s)",
				tc.displaced, refund, fee, tc.refund, tc.fee)
		}
		sum := new(big.Int).Add(refund, fee)
		if sum.Cmp(displaced) != 0 {
			t.Fatalf("split of %s does not partition: %s + %s", tc.displaced, refund, fee)
		}
		if displaced.String() != tc.displaced {
			t.Fatalf("splitDisplacedBid must not mutate its input, got %s", displaced)
		}
	}
}

func TestCheckBalanceBounds(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	if err := checkBalanceBounds(max); err != nil {
		t.Fatalf("2^256-1 must be accepted: %v", err)
	}
	if err := checkBalanceBounds(new(big.Int).Add(max, big.NewInt(1))); err == nil {
		t.Fatalf("2^256 must be rejected")
	}
	if err := checkBalanceBounds(big.NewInt(-1)); err == nil {
		t.Fatalf("negative values must be rejected")
	}
	if err := checkBalanceBounds(nil); err != nil {
		t.Fatalf("nil is treated as zero: %v", err)
	}
}

func TestCloneBigInt(t *testing.T) {
	orig := big.NewInt(42)
	clone := cloneBigInt(orig)
	clone.SetInt64(7)
	if orig.Int64() != 42 {
		t.Fatalf("clone must not alias the original")
	}
	if cloneBigInt(nil).Sign() != 0 {
		t.Fatalf("nil clones to zero")
	}
}
