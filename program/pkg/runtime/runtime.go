// Package runtime is the per-invocation execution context of the contest
// program: the clock reading, the verified signer set, program-address
// signing and the transfer and allocation primitives that enforce it.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
)

var (
	ErrMissingSignature = errors.New("missing required signature")
	ErrNotProgramOwned  = errors.New("account is not owned by the program")
	ErrInvalidSeeds     = errors.New("invalid program address seeds")
)

// Caller is the identity that submitted an invocation. Key must already be
// verified by whoever constructs the Caller; Signature, when set, is recorded
// so the same invocation cannot be replayed.
type Caller struct {
	Key       solana.PublicKey
	Signature solana.Signature
	// ExpiresAt is the last unix second the invocation may run at. Zero
	// means it never expires.
	ExpiresAt int64
}

// Expired reports whether the invocation is past its expiry at now.
func (c Caller) Expired(now time.Time) bool {
	return c.ExpiresAt != 0 && now.Unix() > c.ExpiresAt
}

func (c Caller) HasSignature() bool {
	return c.Signature != solana.Signature{}
}

type Config struct {
	ProgramID solana.PublicKey
	Tx        ledger.Tx
	Now       time.Time
	Rent      ledger.Rent
	Signers   []solana.PublicKey
}

// Invocation is valid for the lifetime of one ledger transaction.
type Invocation struct {
	programID solana.PublicKey
	tx        ledger.Tx
	now       time.Time
	rent      ledger.Rent
	signers   map[solana.PublicKey]struct{}
}

func New(cfg Config) *Invocation {
	inv := &Invocation{
		programID: cfg.ProgramID,
		tx:        cfg.Tx,
		now:       cfg.Now,
		rent:      cfg.Rent,
		signers:   make(map[solana.PublicKey]struct{}, len(cfg.Signers)),
	}
	for _, s := range cfg.Signers {
		inv.signers[s] = struct{}{}
	}
	return inv
}

func (inv *Invocation) ProgramID() solana.PublicKey { return inv.programID }
func (inv *Invocation) Tx() ledger.Tx               { return inv.tx }
func (inv *Invocation) Rent() ledger.Rent           { return inv.rent }

// Now is the clock reading taken when the invocation started.
func (inv *Invocation) Now() time.Time { return inv.now }

// Unix is Now in unix seconds.
func (inv *Invocation) Unix() int64 { return inv.now.Unix() }

func (inv *Invocation) IsSigner(key solana.PublicKey) bool {
	_, ok := inv.signers[key]
	return ok
}

func (inv *Invocation) RequireSigner(key solana.PublicKey) error {
	if !inv.IsSigner(key) {
		return fmt.Errorf("%w: %s", ErrMissingSignature, key)
	}
	return nil
}

// InvokeSigned proves ownership of a program address by its seeds, the last
// of which is the bump. The address becomes a signer for the rest of the
// invocation.
func (inv *Invocation) InvokeSigned(seeds [][]byte) (solana.PublicKey, error) {
	addr, err := solana.CreateProgramAddress(seeds, inv.programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	}
	inv.signers[addr] = struct{}{}
	return addr, nil
}

// Transfer moves lamports out of a signer's holding.
func (inv *Invocation) Transfer(ctx context.Context, from, to solana.PublicKey, lamports uint64) error {
	if err := inv.RequireSigner(from); err != nil {
		return err
	}
	return ledger.Transfer(ctx, inv.tx, from, to, lamports)
}

// Allocate creates a program-owned account at addr holding data, funded
// with its rent-exempt minimum by payer. Both must be signers; a program
// address becomes one through InvokeSigned.
func (inv *Invocation) Allocate(ctx context.Context, payer, addr solana.PublicKey, data []byte) error {
	if err := inv.RequireSigner(payer); err != nil {
		return err
	}
	if err := inv.RequireSigner(addr); err != nil {
		return err
	}
	if _, err := inv.tx.Get(ctx, addr); err == nil {
		return fmt.Errorf("%w: %s", ledger.ErrAccountExists, addr)
	} else if !errors.Is(err, ledger.ErrAccountNotFound) {
		return fmt.Errorf("failed to load %s: %w", addr, err)
	}

	cost := inv.rent.MinimumBalance(len(data))
	if cost > 0 {
		src, _, err := ledger.GetOrEmpty(ctx, inv.tx, payer)
		if err != nil {
			return fmt.Errorf("failed to load payer %s: %w", payer, err)
		}
		if src.Lamports < cost {
			return fmt.Errorf("%w: %s has %d, allocation needs %d", ledger.ErrInsufficientFunds, payer, src.Lamports, cost)
		}
		src.Lamports -= cost
		if err := inv.tx.Put(ctx, src); err != nil {
			return fmt.Errorf("failed to debit payer %s: %w", payer, err)
		}
	}

	return inv.tx.Create(ctx, &ledger.Account{
		Address:  addr,
		Lamports: cost,
		Owner:    inv.programID,
		Data:     data,
	})
}

// Load returns a program-owned account.
func (inv *Invocation) Load(ctx context.Context, addr solana.PublicKey) (*ledger.Account, error) {
	acct, err := inv.tx.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !acct.Owner.Equals(inv.programID) {
		return nil, fmt.Errorf("%w: %s owned by %s", ErrNotProgramOwned, addr, acct.Owner)
	}
	return acct, nil
}

// Store writes new data to a program-owned account, keeping its balance.
func (inv *Invocation) Store(ctx context.Context, addr solana.PublicKey, data []byte) error {
	acct, err := inv.Load(ctx, addr)
	if err != nil {
		return err
	}
	acct.Data = data
	return inv.tx.Put(ctx, acct)
}

// Emit records a named event about ref, stamped with the invocation clock.
func (inv *Invocation) Emit(ctx context.Context, ref solana.PublicKey, name string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}
	return inv.tx.Emit(ctx, ledger.Event{
		ID:        uuid.New(),
		Ref:       ref,
		Name:      name,
		Payload:   raw,
		CreatedAt: inv.now,
	})
}
