package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Transfer moves lamports between two holdings inside tx. The destination is
// created as a system account when it does not exist yet. Authorization of
// the debit is the caller's responsibility.
func Transfer(ctx context.Context, tx Tx, from, to solana.PublicKey, lamports uint64) error {
	if lamports == 0 {
		return nil
	}
	// A missing source is an empty holding and fails the balance check.
	src, _, err := GetOrEmpty(ctx, tx, from)
	if err != nil {
		return fmt.Errorf("failed to load source %s: %w", from, err)
	}
	if src.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, src.Lamports, lamports)
	}
	if from.Equals(to) {
		return nil
	}

	dst, exists, err := GetOrEmpty(ctx, tx, to)
	if err != nil {
		return fmt.Errorf("failed to load destination %s: %w", to, err)
	}
	if lamports > MaxLamports-min(dst.Lamports, MaxLamports) {
		return fmt.Errorf("%w: crediting %s", ErrBalanceOverflow, to)
	}

	src.Lamports -= lamports
	dst.Lamports += lamports

	if err := tx.Put(ctx, src); err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if exists {
		err = tx.Put(ctx, dst)
	} else {
		err = tx.Create(ctx, dst)
	}
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}
