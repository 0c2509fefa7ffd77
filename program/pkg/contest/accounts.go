package contest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/malbeclabs/fitfreak/program/pkg/state"
)

// loadContest decodes the contest at addr and checks that addr is where its
// stored authority and id derive to.
func (p *Program) loadContest(ctx context.Context, inv *runtime.Invocation, addr solana.PublicKey) (*state.Contest, error) {
	acct, err := inv.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	c, err := state.UnmarshalContest(acct.Data)
	if err != nil {
		return nil, err
	}
	bump, err := p.addr.Verify(addr, address.TagContest, c.Authority.Bytes(), address.U64(c.ContestID))
	if err != nil {
		return nil, err
	}
	if bump != c.Bump {
		return nil, failf(ErrInvalidAccount, "contest %s stores bump %d, canonical is %d", addr, c.Bump, bump)
	}
	return c, nil
}

func (p *Program) saveContest(ctx context.Context, inv *runtime.Invocation, addr solana.PublicKey, c *state.Contest) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return inv.Store(ctx, addr, data)
}

// requireAuthority is checked before any other precondition of an
// authority-scoped operation.
func requireAuthority(inv *runtime.Invocation, addr solana.PublicKey, c *state.Contest) error {
	if !inv.IsSigner(c.Authority) {
		return failf(ErrUnauthorized, "contest %s", addr)
	}
	return nil
}

func (p *Program) vaultAddress(addr solana.PublicKey, c *state.Contest) (solana.PublicKey, error) {
	vault, bump, err := p.addr.Vault(addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if bump != c.VaultBump {
		return solana.PublicKey{}, failf(ErrInvalidAccount, "contest %s stores vault bump %d, canonical is %d", addr, c.VaultBump, bump)
	}
	return vault, nil
}

// signVault proves the program controls the contest vault so funds can
// leave it in this invocation.
func (p *Program) signVault(inv *runtime.Invocation, addr solana.PublicKey, c *state.Contest) (solana.PublicKey, error) {
	vault, err := p.vaultAddress(addr, c)
	if err != nil {
		return solana.PublicKey{}, err
	}
	signed, err := inv.InvokeSigned(address.WithBump(address.TagContestVault, c.VaultBump, addr.Bytes()))
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !signed.Equals(vault) {
		return solana.PublicKey{}, failf(ErrInvalidAccount, "vault seeds derive %s, expected %s", signed, vault)
	}
	return vault, nil
}

// escrowBalance is the vault balance above its rent-exempt minimum.
func (p *Program) escrowBalance(ctx context.Context, inv *runtime.Invocation, vault solana.PublicKey) (uint64, error) {
	acct, err := inv.Load(ctx, vault)
	if err != nil {
		return 0, err
	}
	reserve := inv.Rent().MinimumBalance(0)
	if acct.Lamports < reserve {
		return 0, nil
	}
	return acct.Lamports - reserve, nil
}

// loadParticipant returns the registry record of participant in contest,
// re-deriving its address from both keys.
func (p *Program) loadParticipant(ctx context.Context, inv *runtime.Invocation, contest, participant solana.PublicKey) (solana.PublicKey, *state.ParticipantAccount, error) {
	addr, _, err := p.addr.Participant(contest, participant)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	acct, err := inv.Load(ctx, addr)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	rec, err := state.UnmarshalParticipant(acct.Data)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	if !rec.Contest.Equals(contest) || !rec.Participant.Equals(participant) {
		return solana.PublicKey{}, nil, failf(ErrInvalidAccount, "participant record %s belongs to another contest", addr)
	}
	return addr, rec, nil
}
