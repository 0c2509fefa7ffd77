package runtime_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/ledger/pkg/memory"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/stretchr/testify/require"
)

func fund(t *testing.T, l ledger.Ledger, addr solana.PublicKey, lamports uint64) {
	t.Helper()
	err := l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		return tx.Create(ctx, &ledger.Account{Address: addr, Lamports: lamports, Owner: solana.SystemProgramID})
	})
	require.NoError(t, err)
}

func balance(t *testing.T, l ledger.Ledger, addr solana.PublicKey) uint64 {
	t.Helper()
	var lamports uint64
	err := l.View(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		acct, _, err := ledger.GetOrEmpty(ctx, tx, addr)
		if err != nil {
			return err
		}
		lamports = acct.Lamports
		return nil
	})
	require.NoError(t, err)
	return lamports
}

func TestFitFreak_Runtime_TransferRequiresSigner(t *testing.T) {
	t.Parallel()

	l := memory.New()
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()
	fund(t, l, alice, 100)

	err := l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx, Signers: []solana.PublicKey{bob}})
		return inv.Transfer(ctx, alice, bob, 10)
	})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)

	err = l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx, Signers: []solana.PublicKey{alice}})
		return inv.Transfer(ctx, alice, bob, 10)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(90), balance(t, l, alice))
	require.Equal(t, uint64(10), balance(t, l, bob))
}

func TestFitFreak_Runtime_InvokeSignedAllowsVaultDebit(t *testing.T) {
	t.Parallel()

	l := memory.New()
	d := address.New(address.DefaultProgramID)
	contest := solana.NewWallet().PublicKey()
	vault, bump, err := d.Vault(contest)
	require.NoError(t, err)
	fund(t, l, vault, 50)
	dst := solana.NewWallet().PublicKey()

	err = l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx})
		if err := inv.Transfer(ctx, vault, dst, 5); err == nil {
			t.Fatal("expected unsigned vault debit to fail")
		}
		signed, err := inv.InvokeSigned(address.WithBump(address.TagContestVault, bump, contest.Bytes()))
		if err != nil {
			return err
		}
		require.Equal(t, vault, signed)
		return inv.Transfer(ctx, vault, dst, 5)
	})
	require.NoError(t, err)
	require.Equal(t, uint64(45), balance(t, l, vault))

	// Wrong seeds prove a different address, not the vault.
	err = l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx})
		other, err := inv.InvokeSigned(address.WithBump(address.TagContestVault, bump, dst.Bytes()))
		if err == nil {
			require.NotEqual(t, vault, other)
		}
		return inv.Transfer(ctx, vault, dst, 5)
	})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)
}

func TestFitFreak_Runtime_AllocateChargesRent(t *testing.T) {
	t.Parallel()

	l := memory.New()
	d := address.New(address.DefaultProgramID)
	payer := solana.NewWallet().PublicKey()
	rent := ledger.DefaultRent()
	fund(t, l, payer, rent.MinimumBalance(10)+7)

	addr, bump, err := d.Counter(payer)
	require.NoError(t, err)

	alloc := func() error {
		return l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
			inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx, Rent: rent, Signers: []solana.PublicKey{payer}})
			if _, err := inv.InvokeSigned(address.WithBump(address.TagContestCounter, bump, payer.Bytes())); err != nil {
				return err
			}
			return inv.Allocate(ctx, payer, addr, make([]byte, 10))
		})
	}
	require.NoError(t, alloc())
	require.Equal(t, uint64(7), balance(t, l, payer))
	require.Equal(t, rent.MinimumBalance(10), balance(t, l, addr))

	require.ErrorIs(t, alloc(), ledger.ErrAccountExists)

	err = l.View(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx})
		acct, err := inv.Load(ctx, addr)
		if err != nil {
			return err
		}
		require.Len(t, acct.Data, 10)
		_, err = inv.Load(ctx, payer)
		require.ErrorIs(t, err, runtime.ErrNotProgramOwned)
		return nil
	})
	require.NoError(t, err)
}

func TestFitFreak_Runtime_AllocateInsufficientFunds(t *testing.T) {
	t.Parallel()

	l := memory.New()
	payer := solana.NewWallet().PublicKey()
	addr := solana.NewWallet().PublicKey()

	err := l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{
			ProgramID: address.DefaultProgramID,
			Tx:        tx,
			Rent:      ledger.DefaultRent(),
			Signers:   []solana.PublicKey{payer, addr},
		})
		return inv.Allocate(ctx, payer, addr, nil)
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestFitFreak_Runtime_EmitUsesInvocationClock(t *testing.T) {
	t.Parallel()

	l := memory.New()
	ref := solana.NewWallet().PublicKey()
	now := time.Unix(1_700_000_000, 0).UTC()

	err := l.Update(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		inv := runtime.New(runtime.Config{ProgramID: address.DefaultProgramID, Tx: tx, Now: now})
		require.Equal(t, now.Unix(), inv.Unix())
		return inv.Emit(ctx, ref, "Ping", map[string]int{"n": 1})
	})
	require.NoError(t, err)

	err = l.View(t.Context(), func(ctx context.Context, tx ledger.Tx) error {
		evs, err := tx.Events(ctx, ref, 0)
		if err != nil {
			return err
		}
		require.Len(t, evs, 1)
		require.Equal(t, "Ping", evs[0].Name)
		require.True(t, now.Equal(evs[0].CreatedAt))
		var payload map[string]int
		require.NoError(t, json.Unmarshal(evs[0].Payload, &payload))
		require.Equal(t, 1, payload["n"])
		return nil
	})
	require.NoError(t, err)
}
