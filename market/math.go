package market

import (
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// A new bid must reach 110% of the standing bid.
	minIncrementBps = 11_000
	// 10% of a displaced bid accrues to the seller as an engagement fee.
	displacedFeeBps = 1_000
	bpsDenominator  = 10_000
)

var bpsDivisor = big.NewInt(bpsDenominator)

// minNextBid returns the smallest acceptable bid over the standing highest
// bid: floor(highest * 11000 / 10000). Integer arithmetic only.
func minNextBid(highest *big.Int) *big.Int {
	min := new(big.Int).Mul(highest, big.NewInt(minIncrementBps))
	return min.Div(min, bpsDivisor)
}

// splitDisplacedBid partitions a displaced bid into the refund owed to the
// outbid party and the fee owed to the seller. The two parts always sum to
// the original amount exactly; the fee rounds down.
func splitDisplacedBid(displaced *big.Int) (refund, fee *big.Int) {
	fee = new(big.Int).Mul(displaced, big.NewInt(displacedFeeBps))
	fee.Div(fee, bpsDivisor)
	refund = new(big.Int).Sub(displaced, fee)
	return refund, fee
}

// checkBalanceBounds rejects values that do not fit in 256 bits. Stored
// balances must round-trip through the state layer's uint256 encoding.
func checkBalanceBounds(v *big.Int) error {
	if v == nil {
		return nil
	}
	if v.Sign() < 0 {
		return ErrBalanceOverflow
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return ErrBalanceOverflow
	}
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
