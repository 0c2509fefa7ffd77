// Package genesis seeds a ledger with funded system accounts.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"os"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"gopkg.in/yaml.v3"
)

// File is the on-disk genesis layout:
//
//	accounts:
//	  - address: 9xQe...
//	    lamports: 5000000000
type File struct {
	Accounts []Allocation `yaml:"accounts"`
}

type Allocation struct {
	Address  string `yaml:"address"`
	Lamports uint64 `yaml:"lamports"`
}

// Load reads and validates a genesis file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse genesis file: %w", err)
	}
	seen := make(map[string]struct{}, len(f.Accounts))
	for i, a := range f.Accounts {
		key, err := solana.PublicKeyFromBase58(a.Address)
		if err != nil {
			return nil, fmt.Errorf("accounts[%d]: invalid address %q: %w", i, a.Address, err)
		}
		// Program-derived addresses are off the curve and reserved for
		// program records.
		if _, err := new(edwards25519.Point).SetBytes(key.Bytes()); err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w: %s", i, ErrProgramAddress, key)
		}
		if a.Lamports > ledger.MaxLamports {
			return nil, fmt.Errorf("accounts[%d]: %d lamports exceeds %d", i, a.Lamports, ledger.MaxLamports)
		}
		if _, ok := seen[a.Address]; ok {
			return nil, fmt.Errorf("accounts[%d]: duplicate address %s", i, a.Address)
		}
		seen[a.Address] = struct{}{}
	}
	return &f, nil
}

var (
	ErrProgramAddress = errors.New("address is off the ed25519 curve and reserved for program records")
	ErrNotSystemOwned = errors.New("account is not a system account")
)

// Apply creates every listed account that does not exist yet, in one
// transaction. Existing system accounts are left untouched so re-applying
// after a restart never re-mints spent balances. An existing account owned
// by a program fails the whole apply.
func Apply(ctx context.Context, l ledger.Ledger, f *File) (int, error) {
	applied := 0
	err := l.Update(ctx, func(ctx context.Context, tx ledger.Tx) error {
		applied = 0
		for _, a := range f.Accounts {
			addr := solana.MustPublicKeyFromBase58(a.Address)
			acct, err := tx.Get(ctx, addr)
			if errors.Is(err, ledger.ErrAccountNotFound) {
				if err := tx.Create(ctx, &ledger.Account{Address: addr, Lamports: a.Lamports, Owner: solana.SystemProgramID}); err != nil {
					return fmt.Errorf("failed to create %s: %w", addr, err)
				}
				applied++
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", addr, err)
			}
			if !acct.Owner.Equals(solana.SystemProgramID) {
				return fmt.Errorf("%w: %s is owned by %s", ErrNotSystemOwned, addr, acct.Owner)
			}
		}
		return nil
	})
	return applied, err
}
