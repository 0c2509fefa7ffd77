package contest

import (
	"math/bits"

	"github.com/malbeclabs/fitfreak/program/pkg/state"
)

// Winner shares in percent, by rank. The authority receives the rest,
// including whatever integer division truncates.
var winnerShares = [3]uint64{40, 30, 20}

// Payout splits a prize pool. First+Second+Third+Admin always equals Pool.
type Payout struct {
	Pool   uint64 `json:"pool"`
	First  uint64 `json:"first"`
	Second uint64 `json:"second"`
	Third  uint64 `json:"third"`
	Admin  uint64 `json:"admin"`
}

// Winners returns the three ranked winner amounts.
func (po Payout) Winners() [3]uint64 {
	return [3]uint64{po.First, po.Second, po.Third}
}

// ComputePayout splits participantCount*stake by the fixed shares.
func ComputePayout(participantCount uint8, stake uint64) (Payout, error) {
	hi, pool := bits.Mul64(uint64(participantCount), stake)
	if hi != 0 {
		return Payout{}, failf(ErrArithmeticOverflow, "%d x %d overflows", participantCount, stake)
	}
	po := Payout{
		Pool:   pool,
		First:  percentOf(pool, winnerShares[0]),
		Second: percentOf(pool, winnerShares[1]),
		Third:  percentOf(pool, winnerShares[2]),
	}
	po.Admin = pool - po.First - po.Second - po.Third
	return po, nil
}

// percentOf computes floor(n*pct/100) without overflowing the product.
func percentOf(n, pct uint64) uint64 {
	hi, lo := bits.Mul64(n, pct)
	q, _ := bits.Div64(hi, lo, 100)
	return q
}

// prizePool is the stake still held in escrow for c.
func prizePool(c *state.Contest) (uint64, error) {
	hi, pool := bits.Mul64(uint64(c.Staked()), c.StakeAmount)
	if hi != 0 {
		return 0, failf(ErrArithmeticOverflow, "prize pool overflows")
	}
	return pool, nil
}
