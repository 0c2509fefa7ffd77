package contest

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
)

// CloseContest deactivates a contest so no one else can join. It moves no
// funds and does not block distribution or refunds. Closing twice fails.
func (p *Program) CloseContest(ctx context.Context, caller runtime.Caller, contest solana.PublicKey) error {
	return p.invoke(ctx, "close_contest", caller, func(ctx context.Context, inv *runtime.Invocation) error {
		c, err := p.loadContest(ctx, inv, contest)
		if err != nil {
			return err
		}
		if err := requireAuthority(inv, contest, c); err != nil {
			return err
		}
		if !c.IsActive {
			return failf(ErrContestNotActive, "contest %s is already closed", contest)
		}

		c.IsActive = false
		if err := p.saveContest(ctx, inv, contest, c); err != nil {
			return err
		}
		return inv.Emit(ctx, contest, EventContestClosed, ContestClosed{
			Contest:   contest,
			Authority: c.Authority,
		})
	})
}
