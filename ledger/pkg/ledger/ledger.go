// Package ledger defines the account store that hosts the contest program.
//
// A ledger holds accounts (address, lamports, owner, data) and applies
// changes through atomic transactions: everything written inside one Update
// commits together or not at all, and committed updates are serializable.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateSignature = errors.New("signature already processed")
	ErrReadOnly           = errors.New("transaction is read-only")
	ErrBalanceOverflow    = errors.New("balance overflow")
)

// MaxLamports is the largest balance any backend stores. PostgreSQL keeps
// balances in a signed BIGINT, so every backend caps at MaxInt64 and rejects
// larger balances with ErrBalanceOverflow.
const MaxLamports uint64 = math.MaxInt64

// Account is a single addressable holding.
type Account struct {
	Address solana.PublicKey
	// Lamports never exceeds MaxLamports.
	Lamports uint64
	Owner    solana.PublicKey
	Data     []byte
}

// Clone returns a deep copy so callers can mutate data without touching
// the committed state.
func (a *Account) Clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = make([]byte, len(a.Data))
		copy(c.Data, a.Data)
	}
	return &c
}

// Event is a notification emitted by a committed invocation.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Ref       solana.PublicKey `json:"ref"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Tx is the view of the ledger inside one transaction.
type Tx interface {
	// Get returns a copy of the account, or ErrAccountNotFound.
	Get(ctx context.Context, addr solana.PublicKey) (*Account, error)
	// Create allocates a new account, or fails with ErrAccountExists.
	Create(ctx context.Context, acct *Account) error
	// Put overwrites an existing account, or fails with ErrAccountNotFound.
	Put(ctx context.Context, acct *Account) error
	// Emit records an event that becomes visible on commit.
	Emit(ctx context.Context, ev Event) error
	// Events lists events for ref, newest first.
	Events(ctx context.Context, ref solana.PublicKey, limit int) ([]Event, error)
	// RecordSignature marks an invocation signature as processed, or fails
	// with ErrDuplicateSignature.
	RecordSignature(ctx context.Context, sig solana.Signature) error
}

// Ledger is a transactional account store.
type Ledger interface {
	// Update runs fn in a read-write transaction. If fn returns an error no
	// write made by fn is committed.
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// GetOrEmpty returns the account at addr, or a zero-balance system account
// when nothing is stored there yet.
func GetOrEmpty(ctx context.Context, tx Tx, addr solana.PublicKey) (*Account, bool, error) {
	acct, err := tx.Get(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return &Account{Address: addr, Owner: solana.SystemProgramID}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}
