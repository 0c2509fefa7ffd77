package contest

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/metrics"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
)

// DistributeRewards pays the pool of an ended contest to three ranked
// winners and the authority. The pool is recomputed from the stored
// participant count. A winner may hold more than one rank.
func (p *Program) DistributeRewards(ctx context.Context, caller runtime.Caller, contest solana.PublicKey, winners [3]solana.PublicKey) (*Payout, error) {
	var payout Payout
	err := p.invoke(ctx, "distribute_rewards", caller, func(ctx context.Context, inv *runtime.Invocation) error {
		c, err := p.loadContest(ctx, inv, contest)
		if err != nil {
			return err
		}
		if err := requireAuthority(inv, contest, c); err != nil {
			return err
		}

		now := inv.Unix()
		switch {
		case now <= c.EndTime:
			return failf(ErrContestStillActive, "ends at %d, now %d", c.EndTime, now)
		case c.RewardsDistributed:
			return failf(ErrRewardsAlreadyDistributed, "contest %s", contest)
		case c.ParticipantCount < c.MinParticipants:
			return failf(ErrNotEnoughParticipants, "%d joined, %d required", c.ParticipantCount, c.MinParticipants)
		}

		for rank, w := range winners {
			_, rec, err := p.loadParticipant(ctx, inv, contest, w)
			if errors.Is(err, ledger.ErrAccountNotFound) {
				return failf(ErrWinnerNotParticipant, "rank %d winner %s", rank+1, w)
			}
			if err != nil {
				return err
			}
			if rec.Refunded {
				return failf(ErrWinnerNotParticipant, "rank %d winner %s was refunded", rank+1, w)
			}
		}

		payout, err = ComputePayout(c.ParticipantCount, c.StakeAmount)
		if err != nil {
			return err
		}

		vault, err := p.signVault(inv, contest, c)
		if err != nil {
			return err
		}
		for i, amount := range payout.Winners() {
			if err := inv.Transfer(ctx, vault, winners[i], amount); err != nil {
				return err
			}
		}
		if err := inv.Transfer(ctx, vault, c.Authority, payout.Admin); err != nil {
			return err
		}

		c.RewardsDistributed = true
		if err := p.saveContest(ctx, inv, contest, c); err != nil {
			return err
		}
		return inv.Emit(ctx, contest, EventRewardsDistributed, RewardsDistributed{
			Contest: contest,
			Winners: winners,
			Payout:  payout,
		})
	})
	if err != nil {
		return nil, err
	}
	metrics.LamportsPaidOut.WithLabelValues("rewards").Add(float64(payout.Pool))
	p.log.Info("contest: rewards distributed", "contest", contest, "pool", payout.Pool, "admin", payout.Admin)
	return &payout, nil
}
