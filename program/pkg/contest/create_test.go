package contest_test

import (
	"strings"
	"testing"

	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/stretchr/testify/require"
)

func TestFitFreak_Contest_Create(t *testing.T) {
	t.Parallel()

	t.Run("mints ids from the owner counter", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, ledger.Rent{})
		owner := h.wallet(1)

		params := contest.CreateParams{StakeAmount: 100, MaxParticipants: 5, MinParticipants: 3, DurationSeconds: 60}
		r0, err := h.prog.CreateContest(t.Context(), as(owner), params)
		require.NoError(t, err)
		r1, err := h.prog.CreateContest(t.Context(), as(owner), params)
		require.NoError(t, err)
		require.Equal(t, uint64(0), r0.ContestID)
		require.Equal(t, uint64(1), r1.ContestID)
		require.NotEqual(t, r0.Contest, r1.Contest)

		id := uint64(10)
		params.ContestID = &id
		r10, err := h.prog.CreateContest(t.Context(), as(owner), params)
		require.NoError(t, err)
		require.Equal(t, uint64(10), r10.ContestID)

		params.ContestID = nil
		r11, err := h.prog.CreateContest(t.Context(), as(owner), params)
		require.NoError(t, err)
		require.Equal(t, uint64(11), r11.ContestID)

		addr, vault, err := h.prog.ContestAddress(owner, 10)
		require.NoError(t, err)
		require.Equal(t, r10.Contest, addr)
		require.Equal(t, r10.Vault, vault)
	})

	t.Run("same id twice fails", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, ledger.Rent{})
		owner := h.wallet(1)

		id := uint64(3)
		params := contest.CreateParams{ContestID: &id, StakeAmount: 1, MaxParticipants: 1, MinParticipants: 1, DurationSeconds: 60}
		_, err := h.prog.CreateContest(t.Context(), as(owner), params)
		require.NoError(t, err)
		_, err = h.prog.CreateContest(t.Context(), as(owner), params)
		requireCode(t, err, contest.ErrAccountAlreadyExists)
	})

	t.Run("initial state", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, ledger.Rent{})
		owner := h.wallet(1)
		c := h.create(owner, 100, 5, 3)

		info := h.info(c)
		require.Equal(t, owner, info.Authority)
		require.Equal(t, "steps", info.Name)
		require.Equal(t, epoch.Unix(), info.StartTime)
		require.Equal(t, epoch.Unix()+3600, info.EndTime)
		require.Equal(t, epoch.Unix(), info.CreatedAt)
		require.Zero(t, info.ParticipantCount)
		require.Zero(t, info.PrizePool)
		require.Zero(t, info.EscrowBalance)
		require.True(t, info.IsActive)
		require.False(t, info.RewardsDistributed)
		require.Equal(t, contest.StateActive, info.State)

		events, err := h.prog.Events(t.Context(), c, 10)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, contest.EventContestCreated, events[0].Name)
	})

	t.Run("absolute window", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, ledger.Rent{})
		owner := h.wallet(1)

		res, err := h.prog.CreateContest(t.Context(), as(owner), contest.CreateParams{
			StakeAmount:     1,
			MaxParticipants: 2,
			MinParticipants: 1,
			StartTime:       epoch.Unix() + 100,
			EndTime:         epoch.Unix() + 200,
		})
		require.NoError(t, err)
		info := h.info(res.Contest)
		require.Equal(t, epoch.Unix()+100, info.StartTime)
		require.Equal(t, epoch.Unix()+200, info.EndTime)
	})

	t.Run("owner pays rent", func(t *testing.T) {
		t.Parallel()
		rent := ledger.DefaultRent()
		h := newHarness(t, rent)
		cost := rent.MinimumBalance(124) + rent.MinimumBalance(0) + rent.MinimumBalance(49)
		owner := h.wallet(cost + 5)

		c := h.create(owner, 100, 5, 3)
		require.Equal(t, uint64(5), h.balance(owner))
		require.Zero(t, h.info(c).EscrowBalance)

		_, err := h.prog.CreateContest(t.Context(), as(owner), contest.CreateParams{
			StakeAmount: 1, MaxParticipants: 1, MinParticipants: 1, DurationSeconds: 60,
		})
		requireCode(t, err, contest.ErrInsufficientFunds)
		require.Equal(t, uint64(5), h.balance(owner))
	})

	t.Run("requires a caller", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, ledger.Rent{})
		_, err := h.prog.CreateContest(t.Context(), runtime.Caller{}, contest.CreateParams{
			StakeAmount: 1, MaxParticipants: 1, MinParticipants: 1, DurationSeconds: 60,
		})
		requireCode(t, err, contest.ErrUnauthorized)
	})
}

func TestFitFreak_Contest_CreateRejectsInvalidParameters(t *testing.T) {
	t.Parallel()

	now := epoch.Unix()
	valid := contest.CreateParams{StakeAmount: 100, MaxParticipants: 5, MinParticipants: 3, DurationSeconds: 60}

	tests := []struct {
		name   string
		mutate func(p *contest.CreateParams)
	}{
		{"zero stake", func(p *contest.CreateParams) { p.StakeAmount = 0 }},
		{"name too long", func(p *contest.CreateParams) { p.Name = strings.Repeat("n", 33) }},
		{"zero min", func(p *contest.CreateParams) { p.MinParticipants = 0 }},
		{"min above max", func(p *contest.CreateParams) { p.MinParticipants = 6 }},
		{"no duration", func(p *contest.CreateParams) { p.DurationSeconds = 0 }},
		{"negative duration", func(p *contest.CreateParams) { p.DurationSeconds = -5 }},
		{"end before start", func(p *contest.CreateParams) {
			p.DurationSeconds = 0
			p.StartTime = now + 100
			p.EndTime = now + 50
		}},
		{"end in the past", func(p *contest.CreateParams) {
			p.DurationSeconds = 0
			p.StartTime = now - 100
			p.EndTime = now
		}},
		{"end and duration", func(p *contest.CreateParams) { p.EndTime = now + 100 }},
		{"full pool above balance ceiling", func(p *contest.CreateParams) { p.StakeAmount = ledger.MaxLamports/5 + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t, ledger.Rent{})
			owner := h.wallet(1)
			params := valid
			tt.mutate(&params)
			_, err := h.prog.CreateContest(t.Context(), as(owner), params)
			requireCode(t, err, contest.ErrInvalidParameters)
		})
	}
}
