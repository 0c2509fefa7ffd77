// Package memory is a single-writer in-process ledger.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
)

// Ledger keeps all accounts in memory. Writers are serialized by a mutex and
// each transaction stages its writes until fn returns without error.
type Ledger struct {
	mu         sync.RWMutex
	accounts   map[solana.PublicKey]*ledger.Account
	events     []ledger.Event
	signatures map[solana.Signature]struct{}
}

var _ ledger.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{
		accounts:   make(map[solana.PublicKey]*ledger.Account),
		signatures: make(map[solana.Signature]struct{}),
	}
}

func (l *Ledger) Update(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &txn{l: l, writes: make(map[solana.PublicKey]*ledger.Account), sigs: make(map[solana.Signature]struct{})}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for addr, acct := range tx.writes {
		l.accounts[addr] = acct
	}
	l.events = append(l.events, tx.events...)
	for sig := range tx.sigs {
		l.signatures[sig] = struct{}{}
	}
	return nil
}

func (l *Ledger) View(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &txn{l: l, readOnly: true})
}

func (l *Ledger) Close() error {
	return nil
}

type txn struct {
	l        *Ledger
	readOnly bool
	writes   map[solana.PublicKey]*ledger.Account
	events   []ledger.Event
	sigs     map[solana.Signature]struct{}
}

func (t *txn) lookup(addr solana.PublicKey) (*ledger.Account, bool) {
	if acct, ok := t.writes[addr]; ok {
		return acct, true
	}
	acct, ok := t.l.accounts[addr]
	return acct, ok
}

func (t *txn) Get(_ context.Context, addr solana.PublicKey) (*ledger.Account, error) {
	acct, ok := t.lookup(addr)
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (t *txn) Create(_ context.Context, acct *ledger.Account) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	if _, ok := t.lookup(acct.Address); ok {
		return ledger.ErrAccountExists
	}
	if acct.Lamports > ledger.MaxLamports {
		return fmt.Errorf("%w: %d lamports", ledger.ErrBalanceOverflow, acct.Lamports)
	}
	t.writes[acct.Address] = acct.Clone()
	return nil
}

func (t *txn) Put(_ context.Context, acct *ledger.Account) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	if _, ok := t.lookup(acct.Address); !ok {
		return ledger.ErrAccountNotFound
	}
	if acct.Lamports > ledger.MaxLamports {
		return fmt.Errorf("%w: %d lamports", ledger.ErrBalanceOverflow, acct.Lamports)
	}
	t.writes[acct.Address] = acct.Clone()
	return nil
}

func (t *txn) Emit(_ context.Context, ev ledger.Event) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	t.events = append(t.events, ev)
	return nil
}

func (t *txn) Events(_ context.Context, ref solana.PublicKey, limit int) ([]ledger.Event, error) {
	var out []ledger.Event
	for _, ev := range t.l.events {
		if ev.Ref.Equals(ref) {
			out = append(out, ev)
		}
	}
	for _, ev := range t.events {
		if ev.Ref.Equals(ref) {
			out = append(out, ev)
		}
	}
	// Insertion order is commit order; reverse for newest first.
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *txn) RecordSignature(_ context.Context, sig solana.Signature) error {
	if t.readOnly {
		return ledger.ErrReadOnly
	}
	if _, ok := t.l.signatures[sig]; ok {
		return ledger.ErrDuplicateSignature
	}
	if _, ok := t.sigs[sig]; ok {
		return ledger.ErrDuplicateSignature
	}
	t.sigs[sig] = struct{}{}
	return nil
}
