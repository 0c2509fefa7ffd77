package contest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/metrics"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
)

// ClaimRefund returns the caller's stake from a contest that ended without
// reaching quorum. Each participant can claim once.
func (p *Program) ClaimRefund(ctx context.Context, caller runtime.Caller, contest solana.PublicKey) (uint64, error) {
	var amount uint64
	err := p.invoke(ctx, "claim_refund", caller, func(ctx context.Context, inv *runtime.Invocation) error {
		participant := caller.Key
		if err := inv.RequireSigner(participant); err != nil {
			return err
		}
		c, err := p.loadContest(ctx, inv, contest)
		if err != nil {
			return err
		}

		now := inv.Unix()
		switch {
		case now <= c.EndTime:
			return failf(ErrContestStillActive, "ends at %d, now %d", c.EndTime, now)
		case c.RewardsDistributed:
			return failf(ErrRewardsAlreadyDistributed, "contest %s", contest)
		case c.ParticipantCount >= c.MinParticipants:
			return failf(ErrQuorumReached, "%d joined, %d required", c.ParticipantCount, c.MinParticipants)
		}

		recAddr, rec, err := p.loadParticipant(ctx, inv, contest, participant)
		if err != nil {
			return err
		}
		if rec.Refunded {
			return failf(ErrAlreadyRefunded, "participant %s", participant)
		}

		vault, err := p.signVault(inv, contest, c)
		if err != nil {
			return err
		}
		if err := inv.Transfer(ctx, vault, participant, c.StakeAmount); err != nil {
			return err
		}

		rec.Refunded = true
		recData, err := rec.Marshal()
		if err != nil {
			return err
		}
		if err := inv.Store(ctx, recAddr, recData); err != nil {
			return err
		}
		c.RefundedCount++
		if err := p.saveContest(ctx, inv, contest, c); err != nil {
			return err
		}

		amount = c.StakeAmount
		return inv.Emit(ctx, contest, EventStakeRefunded, StakeRefunded{
			Contest:     contest,
			Participant: participant,
			Amount:      amount,
		})
	})
	if err != nil {
		return 0, err
	}
	metrics.LamportsPaidOut.WithLabelValues("refund").Add(float64(amount))
	return amount, nil
}
