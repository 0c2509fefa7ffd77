package contest

import (
	"context"
	"errors"
	"math"
	"math/bits"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/malbeclabs/fitfreak/program/pkg/state"
)

// CreateParams describes a new contest. The window is either absolute
// (StartTime, EndTime) or relative to the invocation clock (DurationSeconds,
// with StartTime defaulting to now).
type CreateParams struct {
	ContestID       *uint64 `json:"contest_id,omitempty"`
	Name            string  `json:"name"`
	StakeAmount     uint64  `json:"stake_amount"`
	MaxParticipants uint8   `json:"max_participants"`
	MinParticipants uint8   `json:"min_participants"`
	StartTime       int64   `json:"start_time,omitempty"`
	EndTime         int64   `json:"end_time,omitempty"`
	DurationSeconds int64   `json:"duration_seconds,omitempty"`
}

type CreateResult struct {
	Contest   solana.PublicKey `json:"contest"`
	ContestID uint64           `json:"contest_id"`
	Vault     solana.PublicKey `json:"vault"`
}

// window resolves the contest start and end against now.
func (params *CreateParams) window(now int64) (int64, int64, error) {
	start := params.StartTime
	if start == 0 {
		start = now
	}
	end := params.EndTime
	if end == 0 {
		if params.DurationSeconds <= 0 {
			return 0, 0, failf(ErrInvalidParameters, "duration must be positive")
		}
		if start > math.MaxInt64-params.DurationSeconds {
			return 0, 0, failf(ErrArithmeticOverflow, "end time overflows")
		}
		end = start + params.DurationSeconds
	} else if params.DurationSeconds != 0 {
		return 0, 0, failf(ErrInvalidParameters, "end time and duration are exclusive")
	}
	if end <= start {
		return 0, 0, failf(ErrInvalidParameters, "end time %d must be after start time %d", end, start)
	}
	if end <= now {
		return 0, 0, failf(ErrInvalidParameters, "end time %d is in the past", end)
	}
	return start, end, nil
}

func (params *CreateParams) validate() error {
	switch {
	case params.StakeAmount == 0:
		return failf(ErrInvalidParameters, "stake amount must be positive")
	case len(params.Name) > state.MaxNameLen:
		return failf(ErrInvalidParameters, "name exceeds %d bytes", state.MaxNameLen)
	case params.MinParticipants == 0:
		return failf(ErrInvalidParameters, "min participants must be at least 1")
	case params.MinParticipants > params.MaxParticipants:
		return failf(ErrInvalidParameters, "min participants %d exceeds max %d", params.MinParticipants, params.MaxParticipants)
	}
	// A full contest's pool must fit a ledger balance.
	if hi, pool := bits.Mul64(params.StakeAmount, uint64(params.MaxParticipants)); hi != 0 || pool > ledger.MaxLamports {
		return failf(ErrInvalidParameters, "stake %d x %d participants exceeds %d lamports", params.StakeAmount, params.MaxParticipants, ledger.MaxLamports)
	}
	return nil
}

// CreateContest allocates a contest and its vault owned by caller. Without
// an explicit id the next id is taken from the caller's counter; either way
// the counter ends past the id used.
func (p *Program) CreateContest(ctx context.Context, caller runtime.Caller, params CreateParams) (*CreateResult, error) {
	var res *CreateResult
	err := p.invoke(ctx, "create_contest", caller, func(ctx context.Context, inv *runtime.Invocation) error {
		if err := params.validate(); err != nil {
			return err
		}
		owner := caller.Key
		if err := inv.RequireSigner(owner); err != nil {
			return err
		}
		start, end, err := params.window(inv.Unix())
		if err != nil {
			return err
		}

		counterAddr, counter, err := p.loadOrInitCounter(ctx, inv, owner)
		if err != nil {
			return err
		}
		id := counter.Count
		if params.ContestID != nil {
			id = *params.ContestID
		}
		if id == math.MaxUint64 {
			return failf(ErrArithmeticOverflow, "contest id space exhausted")
		}
		counter.Count = max(counter.Count, id) + 1

		contestAddr, bump, err := p.addr.Contest(owner, id)
		if err != nil {
			return err
		}
		vaultAddr, vaultBump, err := p.addr.Vault(contestAddr)
		if err != nil {
			return err
		}

		c := &state.Contest{
			Authority:       owner,
			ContestID:       id,
			Name:            params.Name,
			StakeAmount:     params.StakeAmount,
			StartTime:       start,
			EndTime:         end,
			MaxParticipants: params.MaxParticipants,
			MinParticipants: params.MinParticipants,
			IsActive:        true,
			Bump:            bump,
			VaultBump:       vaultBump,
			CreatedAt:       inv.Unix(),
		}
		data, err := c.Marshal()
		if err != nil {
			return err
		}

		if _, err := inv.InvokeSigned(address.WithBump(address.TagContest, bump, owner.Bytes(), address.U64(id))); err != nil {
			return err
		}
		if err := inv.Allocate(ctx, owner, contestAddr, data); err != nil {
			return err
		}
		if _, err := inv.InvokeSigned(address.WithBump(address.TagContestVault, vaultBump, contestAddr.Bytes())); err != nil {
			return err
		}
		if err := inv.Allocate(ctx, owner, vaultAddr, nil); err != nil {
			return err
		}

		counterData, err := counter.Marshal()
		if err != nil {
			return err
		}
		if err := inv.Store(ctx, counterAddr, counterData); err != nil {
			return err
		}

		if err := inv.Emit(ctx, contestAddr, EventContestCreated, ContestCreated{
			Contest:     contestAddr,
			ContestID:   id,
			Name:        c.Name,
			Authority:   owner,
			StakeAmount: c.StakeAmount,
			StartTime:   start,
			EndTime:     end,
		}); err != nil {
			return err
		}

		res = &CreateResult{Contest: contestAddr, ContestID: id, Vault: vaultAddr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.log.Info("contest: created", "contest", res.Contest, "id", res.ContestID, "authority", caller.Key)
	return res, nil
}

// loadOrInitCounter returns the owner's id counter, allocating it on first
// use with the owner paying for it.
func (p *Program) loadOrInitCounter(ctx context.Context, inv *runtime.Invocation, owner solana.PublicKey) (solana.PublicKey, *state.ContestCounter, error) {
	addr, bump, err := p.addr.Counter(owner)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}

	acct, err := inv.Load(ctx, addr)
	if err == nil {
		counter, err := state.UnmarshalCounter(acct.Data)
		if err != nil {
			return solana.PublicKey{}, nil, err
		}
		if !counter.Owner.Equals(owner) {
			return solana.PublicKey{}, nil, failf(ErrInvalidAccount, "counter %s belongs to %s", addr, counter.Owner)
		}
		return addr, counter, nil
	}
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		return solana.PublicKey{}, nil, err
	}

	counter := &state.ContestCounter{Owner: owner, Bump: bump}
	data, err := counter.Marshal()
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	if _, err := inv.InvokeSigned(address.WithBump(address.TagContestCounter, bump, owner.Bytes())); err != nil {
		return solana.PublicKey{}, nil, err
	}
	if err := inv.Allocate(ctx, owner, addr, data); err != nil {
		return solana.PublicKey{}, nil, err
	}
	return addr, counter, nil
}
