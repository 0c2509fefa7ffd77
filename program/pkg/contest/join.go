package contest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/malbeclabs/fitfreak/program/pkg/state"
)

// JoinContest stakes the caller into contest. The stake moves into the vault
// and a participant record is allocated at the address derived from the
// contest and the caller, so a second join by the same caller fails.
func (p *Program) JoinContest(ctx context.Context, caller runtime.Caller, contest solana.PublicKey) error {
	return p.invoke(ctx, "join_contest", caller, func(ctx context.Context, inv *runtime.Invocation) error {
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
		case !c.IsActive:
			return failf(ErrContestNotActive, "contest %s", contest)
		case now < c.StartTime:
			return failf(ErrContestNotStarted, "starts at %d, now %d", c.StartTime, now)
		case now >= c.EndTime:
			return failf(ErrContestEnded, "ended at %d, now %d", c.EndTime, now)
		case c.ParticipantCount >= c.MaxParticipants:
			return failf(ErrContestFull, "%d of %d joined", c.ParticipantCount, c.MaxParticipants)
		}

		vault, err := p.vaultAddress(contest, c)
		if err != nil {
			return err
		}

		recAddr, recBump, err := p.addr.Participant(contest, participant)
		if err != nil {
			return err
		}
		rec := &state.ParticipantAccount{
			Contest:     contest,
			Participant: participant,
			JoinedAt:    now,
			Bump:        recBump,
		}
		data, err := rec.Marshal()
		if err != nil {
			return err
		}
		if _, err := inv.InvokeSigned(address.WithBump(address.TagParticipant, recBump, contest.Bytes(), participant.Bytes())); err != nil {
			return err
		}
		if err := inv.Allocate(ctx, participant, recAddr, data); err != nil {
			return err
		}

		if err := inv.Transfer(ctx, participant, vault, c.StakeAmount); err != nil {
			return err
		}

		c.ParticipantCount++
		if err := p.saveContest(ctx, inv, contest, c); err != nil {
			return err
		}

		pool, err := prizePool(c)
		if err != nil {
			return err
		}
		return inv.Emit(ctx, contest, EventParticipantJoined, ParticipantJoined{
			Contest:          contest,
			Participant:      participant,
			ParticipantCount: c.ParticipantCount,
			PrizePool:        pool,
		})
	})
}
