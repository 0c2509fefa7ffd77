package contest_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/ledger/pkg/memory"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	fftesting "github.com/malbeclabs/fitfreak/utils/pkg/testing"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0).UTC()

type harness struct {
	t      *testing.T
	ledger *memory.Ledger
	clock  *clockwork.FakeClock
	prog   *contest.Program
	rent   ledger.Rent
}

func newHarness(t *testing.T, rent ledger.Rent) *harness {
	t.Helper()
	l := memory.New()
	clock := clockwork.NewFakeClockAt(epoch)
	prog, err := contest.New(contest.Config{
		Logger: fftesting.NewLogger(),
		Clock:  clock,
		Ledger: l,
		Rent:   rent,
	})
	require.NoError(t, err)
	return &harness{t: t, ledger: l, clock: clock, prog: prog, rent: rent}
}

// wallet returns a new funded system account.
func (h *harness) wallet(lamports uint64) solana.PublicKey {
	h.t.Helper()
	key := solana.NewWallet().PublicKey()
	if lamports == 0 {
		return key
	}
	err := h.ledger.Update(h.t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ctx, &ledger.Account{Address: key, Lamports: lamports, Owner: solana.SystemProgramID})
	})
	require.NoError(h.t, err)
	return key
}

func (h *harness) balance(addr solana.PublicKey) uint64 {
	h.t.Helper()
	lamports, err := h.prog.Balance(h.t.Context(), addr)
	require.NoError(h.t, err)
	return lamports
}

func (h *harness) info(c solana.PublicKey) *contest.Info {
	h.t.Helper()
	info, err := h.prog.GetContestInfo(h.t.Context(), c)
	require.NoError(h.t, err)
	return info
}

func as(key solana.PublicKey) runtime.Caller {
	return runtime.Caller{Key: key}
}

// create makes a contest running for an hour from the current clock.
func (h *harness) create(owner solana.PublicKey, stake uint64, maxP, minP uint8) solana.PublicKey {
	h.t.Helper()
	res, err := h.prog.CreateContest(h.t.Context(), as(owner), contest.CreateParams{
		Name:            "steps",
		StakeAmount:     stake,
		MaxParticipants: maxP,
		MinParticipants: minP,
		DurationSeconds: 3600,
	})
	require.NoError(h.t, err)
	return res.Contest
}

// joinN joins n fresh wallets funded with exactly the stake.
func (h *harness) joinN(c solana.PublicKey, stake uint64, n int) []solana.PublicKey {
	h.t.Helper()
	keys := make([]solana.PublicKey, n)
	for i := range keys {
		keys[i] = h.wallet(stake + h.rent.MinimumBalance(82))
		require.NoError(h.t, h.prog.JoinContest(h.t.Context(), as(keys[i]), c))
	}
	return keys
}

func requireCode(t *testing.T, err error, want *contest.Error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, want)
	got, ok := contest.AsError(err)
	require.True(t, ok)
	require.Equal(t, want.Code, got.Code)
}
