package contest_test

import (
	"math"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
	"github.com/stretchr/testify/require"
)

func TestFitFreak_Contest_DistributeExample(t *testing.T) {
	t.Parallel()

	h := newHarness(t, ledger.Rent{})
	owner := h.wallet(1)
	c := h.create(owner, 100, 5, 3)
	ps := h.joinN(c, 100, 4)

	info := h.info(c)
	require.Equal(t, uint8(4), info.ParticipantCount)
	require.Equal(t, uint64(400), h.balance(info.Vault))

	h.clock.Advance(time.Hour + time.Second)
	payout, err := h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[2], ps[0], ps[3]})
	require.NoError(t, err)
	require.Equal(t, contest.Payout{Pool: 400, First: 160, Second: 120, Third: 80, Admin: 40}, *payout)

	require.Equal(t, uint64(160), h.balance(ps[2]))
	require.Equal(t, uint64(120), h.balance(ps[0]))
	require.Equal(t, uint64(80), h.balance(ps[3]))
	require.Zero(t, h.balance(ps[1]))
	require.Equal(t, uint64(41), h.balance(owner))
	require.Zero(t, h.balance(info.Vault))

	info = h.info(c)
	require.True(t, info.RewardsDistributed)
	require.Equal(t, contest.StateDistributed, info.State)

	// A second distribution moves nothing.
	_, err = h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[1], ps[1], ps[1]})
	requireCode(t, err, contest.ErrRewardsAlreadyDistributed)
	require.Zero(t, h.balance(ps[1]))
	require.Equal(t, uint64(41), h.balance(owner))

	events, err := h.prog.Events(t.Context(), c, 1)
	require.NoError(t, err)
	require.Equal(t, contest.EventRewardsDistributed, events[0].Name)
}

func TestFitFreak_Contest_DistributeWithoutQuorum(t *testing.T) {
	t.Parallel()

	h := newHarness(t, ledger.Rent{})
	owner := h.wallet(1)
	c := h.create(owner, 100, 5, 3)
	ps := h.joinN(c, 100, 2)

	h.clock.Advance(2 * time.Hour)
	_, err := h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[0], ps[1], ps[0]})
	requireCode(t, err, contest.ErrNotEnoughParticipants)

	info := h.info(c)
	require.Equal(t, uint64(200), h.balance(info.Vault))
	require.False(t, info.RewardsDistributed)
}

func TestFitFreak_Contest_DistributeGuards(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*harness, solana.PublicKey, solana.PublicKey, []solana.PublicKey) {
		h := newHarness(t, ledger.Rent{})
		owner := h.wallet(1)
		c := h.create(owner, 100, 5, 3)
		return h, owner, c, h.joinN(c, 100, 3)
	}

	t.Run("non-authority always unauthorized", func(t *testing.T) {
		t.Parallel()
		h, _, c, ps := setup(t)
		winners := [3]solana.PublicKey{ps[0], ps[1], ps[2]}
		vault := h.info(c).Vault

		// Identity is checked before timing.
		_, err := h.prog.DistributeRewards(t.Context(), as(ps[0]), c, winners)
		requireCode(t, err, contest.ErrUnauthorized)
		h.clock.Advance(2 * time.Hour)
		_, err = h.prog.DistributeRewards(t.Context(), as(ps[0]), c, winners)
		requireCode(t, err, contest.ErrUnauthorized)
		require.Equal(t, uint64(300), h.balance(vault))
	})

	t.Run("not before the end", func(t *testing.T) {
		t.Parallel()
		h, owner, c, ps := setup(t)
		winners := [3]solana.PublicKey{ps[0], ps[1], ps[2]}

		_, err := h.prog.DistributeRewards(t.Context(), as(owner), c, winners)
		requireCode(t, err, contest.ErrContestStillActive)

		// Distribution needs now > endTime, so the end instant is still too early.
		h.clock.Advance(time.Hour)
		_, err = h.prog.DistributeRewards(t.Context(), as(owner), c, winners)
		requireCode(t, err, contest.ErrContestStillActive)

		h.clock.Advance(time.Second)
		_, err = h.prog.DistributeRewards(t.Context(), as(owner), c, winners)
		require.NoError(t, err)
	})

	t.Run("winner must have joined", func(t *testing.T) {
		t.Parallel()
		h, owner, c, ps := setup(t)
		outsider := h.wallet(0)
		h.clock.Advance(2 * time.Hour)

		_, err := h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[0], outsider, ps[2]})
		requireCode(t, err, contest.ErrWinnerNotParticipant)
		require.Zero(t, h.balance(outsider))
		require.False(t, h.info(c).RewardsDistributed)
	})

	t.Run("one winner may take several ranks", func(t *testing.T) {
		t.Parallel()
		h, owner, c, ps := setup(t)
		h.clock.Advance(2 * time.Hour)

		payout, err := h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[1], ps[1], ps[1]})
		require.NoError(t, err)
		require.Equal(t, uint64(270), h.balance(ps[1]))
		require.Equal(t, uint64(30), payout.Admin)
	})

	t.Run("closed contest still distributes", func(t *testing.T) {
		t.Parallel()
		h, owner, c, ps := setup(t)
		require.NoError(t, h.prog.CloseContest(t.Context(), as(owner), c))
		h.clock.Advance(2 * time.Hour)

		_, err := h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[0], ps[1], ps[2]})
		require.NoError(t, err)
		require.Equal(t, contest.StateDistributed, h.info(c).State)
	})
}

func TestFitFreak_Contest_EscrowInvariantWithRent(t *testing.T) {
	t.Parallel()

	rent := ledger.DefaultRent()
	h := newHarness(t, rent)
	owner := h.wallet(10_000_000)
	c := h.create(owner, 1_000_000, 4, 2)
	reserve := rent.MinimumBalance(0)

	ps := h.joinN(c, 1_000_000, 3)
	info := h.info(c)
	require.Equal(t, reserve+info.PrizePool, h.balance(info.Vault))
	require.Equal(t, info.PrizePool, info.EscrowBalance)
	require.Equal(t, uint64(3_000_000), info.PrizePool)

	h.clock.Advance(2 * time.Hour)
	_, err := h.prog.DistributeRewards(t.Context(), as(owner), c, [3]solana.PublicKey{ps[0], ps[1], ps[2]})
	require.NoError(t, err)
	require.Equal(t, reserve, h.balance(info.Vault))
}

func TestFitFreak_Contest_ComputePayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count uint8
		stake uint64
	}{
		{1, 1}, {1, 7}, {3, 33}, {4, 100}, {7, 999_999_937}, {255, math.MaxUint64 / 255},
		{1, math.MaxUint64},
	}
	for _, tt := range tests {
		po, err := contest.ComputePayout(tt.count, tt.stake)
		require.NoError(t, err)
		require.Equal(t, uint64(tt.count)*tt.stake, po.Pool)
		require.Equal(t, po.Pool, po.First+po.Second+po.Third+po.Admin)
		require.GreaterOrEqual(t, po.First, po.Second)
		require.GreaterOrEqual(t, po.Second, po.Third)
	}

	po, err := contest.ComputePayout(1, 7)
	require.NoError(t, err)
	require.Equal(t, contest.Payout{Pool: 7, First: 2, Second: 2, Third: 1, Admin: 2}, po)

	_, err = contest.ComputePayout(2, math.MaxUint64)
	requireCode(t, err, contest.ErrArithmeticOverflow)
}
