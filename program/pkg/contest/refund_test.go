package contest_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
	"github.com/stretchr/testify/require"
)

func TestFitFreak_Contest_ClaimRefund(t *testing.T) {
	t.Parallel()

	h := newHarness(t, ledger.Rent{})
	owner := h.wallet(1)
	c := h.create(owner, 100, 5, 3)
	ps := h.joinN(c, 100, 2)
	vault := h.info(c).Vault

	_, err := h.prog.ClaimRefund(t.Context(), as(ps[0]), c)
	requireCode(t, err, contest.ErrContestStillActive)

	h.clock.Advance(2 * time.Hour)

	amount, err := h.prog.ClaimRefund(t.Context(), as(ps[0]), c)
	require.NoError(t, err)
	require.Equal(t, uint64(100), amount)
	require.Equal(t, uint64(100), h.balance(ps[0]))
	require.Equal(t, uint64(100), h.balance(vault))

	info := h.info(c)
	require.Equal(t, uint8(1), info.RefundedCount)
	require.Equal(t, uint8(2), info.ParticipantCount)
	require.Equal(t, info.PrizePool, info.EscrowBalance)

	_, err = h.prog.ClaimRefund(t.Context(), as(ps[0]), c)
	requireCode(t, err, contest.ErrAlreadyRefunded)

	_, err = h.prog.ClaimRefund(t.Context(), as(h.wallet(0)), c)
	requireCode(t, err, contest.ErrAccountNotFound)

	_, err = h.prog.ClaimRefund(t.Context(), as(ps[1]), c)
	require.NoError(t, err)
	require.Zero(t, h.balance(vault))
	require.Zero(t, h.info(c).PrizePool)

	rec, err := h.prog.GetParticipant(t.Context(), c, ps[1])
	require.NoError(t, err)
	require.True(t, rec.Refunded)
}

func TestFitFreak_Contest_ClaimRefundAfterQuorum(t *testing.T) {
	t.Parallel()

	h := newHarness(t, ledger.Rent{})
	owner := h.wallet(1)
	c := h.create(owner, 100, 5, 2)
	ps := h.joinN(c, 100, 2)
	h.clock.Advance(2 * time.Hour)

	_, err := h.prog.ClaimRefund(t.Context(), as(ps[0]), c)
	requireCode(t, err, contest.ErrQuorumReached)

	_, err = h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[0], ps[1], ps[0]})
	require.NoError(t, err)
	_, err = h.prog.ClaimRefund(t.Context(), as(ps[1]), c)
	requireCode(t, err, contest.ErrRewardsAlreadyDistributed)
}
