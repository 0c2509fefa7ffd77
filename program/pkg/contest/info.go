package contest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
	"github.com/malbeclabs/fitfreak/program/pkg/state"
)

// State is the lifecycle stage of a contest as seen at a given instant.
type State string

const (
	StateActive      State = "active"
	StateExpired     State = "expired"
	StateClosed      State = "closed"
	StateDistributed State = "distributed"
)

func lifecycle(c *state.Contest, now int64) State {
	switch {
	case c.RewardsDistributed:
		return StateDistributed
	case !c.IsActive:
		return StateClosed
	case now >= c.EndTime:
		return StateExpired
	default:
		return StateActive
	}
}

// Info is the public projection of a contest.
type Info struct {
	Address            solana.PublicKey `json:"address"`
	Authority          solana.PublicKey `json:"authority"`
	ContestID          uint64           `json:"contest_id"`
	Name               string           `json:"name"`
	StakeAmount        uint64           `json:"stake_amount"`
	StartTime          int64            `json:"start_time"`
	EndTime            int64            `json:"end_time"`
	MaxParticipants    uint8            `json:"max_participants"`
	MinParticipants    uint8            `json:"min_participants"`
	ParticipantCount   uint8            `json:"participant_count"`
	RefundedCount      uint8            `json:"refunded_count"`
	IsActive           bool             `json:"is_active"`
	RewardsDistributed bool             `json:"rewards_distributed"`
	CreatedAt          int64            `json:"created_at"`
	PrizePool          uint64           `json:"prize_pool"`
	Vault              solana.PublicKey `json:"vault"`
	EscrowBalance      uint64           `json:"escrow_balance"`
	State              State            `json:"state"`
}

// GetContestInfo reads a contest without changing anything. No
// authorization is required.
func (p *Program) GetContestInfo(ctx context.Context, contest solana.PublicKey) (*Info, error) {
	var info *Info
	err := p.view(ctx, func(ctx context.Context, inv *runtime.Invocation) error {
		c, err := p.loadContest(ctx, inv, contest)
		if err != nil {
			return err
		}
		vault, err := p.vaultAddress(contest, c)
		if err != nil {
			return err
		}
		escrow, err := p.escrowBalance(ctx, inv, vault)
		if err != nil {
			return err
		}
		pool, err := prizePool(c)
		if err != nil {
			return err
		}
		info = &Info{
			Address:            contest,
			Authority:          c.Authority,
			ContestID:          c.ContestID,
			Name:               c.Name,
			StakeAmount:        c.StakeAmount,
			StartTime:          c.StartTime,
			EndTime:            c.EndTime,
			MaxParticipants:    c.MaxParticipants,
			MinParticipants:    c.MinParticipants,
			ParticipantCount:   c.ParticipantCount,
			RefundedCount:      c.RefundedCount,
			IsActive:           c.IsActive,
			RewardsDistributed: c.RewardsDistributed,
			CreatedAt:          c.CreatedAt,
			PrizePool:          pool,
			Vault:              vault,
			EscrowBalance:      escrow,
			State:              lifecycle(c, inv.Unix()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ParticipantInfo is the public projection of a participant record.
type ParticipantInfo struct {
	Address     solana.PublicKey `json:"address"`
	Contest     solana.PublicKey `json:"contest"`
	Participant solana.PublicKey `json:"participant"`
	JoinedAt    int64            `json:"joined_at"`
	Refunded    bool             `json:"refunded"`
}

func (p *Program) GetParticipant(ctx context.Context, contest, participant solana.PublicKey) (*ParticipantInfo, error) {
	var info *ParticipantInfo
	err := p.view(ctx, func(ctx context.Context, inv *runtime.Invocation) error {
		addr, rec, err := p.loadParticipant(ctx, inv, contest, participant)
		if err != nil {
			return err
		}
		info = &ParticipantInfo{
			Address:     addr,
			Contest:     rec.Contest,
			Participant: rec.Participant,
			JoinedAt:    rec.JoinedAt,
			Refunded:    rec.Refunded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Balance returns the lamports held at addr; unknown addresses hold zero.
func (p *Program) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var lamports uint64
	err := p.cfg.Ledger.View(ctx, func(ctx context.Context, tx ledger.Tx) error {
		acct, _, err := ledger.GetOrEmpty(ctx, tx, addr)
		if err != nil {
			return err
		}
		lamports = acct.Lamports
		return nil
	})
	return lamports, err
}

// Events lists notifications emitted for contest, newest first.
func (p *Program) Events(ctx context.Context, contest solana.PublicKey, limit int) ([]ledger.Event, error) {
	var events []ledger.Event
	err := p.cfg.Ledger.View(ctx, func(ctx context.Context, tx ledger.Tx) error {
		var err error
		events, err = tx.Events(ctx, contest, limit)
		return err
	})
	return events, err
}

// ContestAddress derives where owner's contest with id lives.
func (p *Program) ContestAddress(owner solana.PublicKey, id uint64) (solana.PublicKey, solana.PublicKey, error) {
	contest, _, err := p.addr.Contest(owner, id)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	vault, _, err := p.addr.Vault(contest)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return contest, vault, nil
}
