// Package contest implements the staking contest program: contest creation,
// joining, reward distribution, closing, refunds and the read-only contest
// projection. Every operation runs as one atomic ledger transaction and
// re-derives each account it touches from trusted seeds.
package contest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/metrics"
	"github.com/malbeclabs/fitfreak/program/pkg/runtime"
)

type Config struct {
	Logger    *slog.Logger
	Clock     clockwork.Clock
	Ledger    ledger.Ledger
	ProgramID solana.PublicKey
	// Rent prices record allocation. The zero value makes allocation free.
	Rent ledger.Rent
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Ledger == nil {
		return errors.New("ledger is required")
	}
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = address.DefaultProgramID
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

type Program struct {
	log  *slog.Logger
	cfg  Config
	addr address.Deriver
}

func New(cfg Config) (*Program, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Program{
		log:  cfg.Logger,
		cfg:  cfg,
		addr: address.New(cfg.ProgramID),
	}, nil
}

func (p *Program) ProgramID() solana.PublicKey { return p.cfg.ProgramID }

// Addresses returns the deriver used for this program's records.
func (p *Program) Addresses() address.Deriver { return p.addr }

// invoke runs fn as one atomic invocation on behalf of caller. The clock is
// read once before the transaction so retried transactions see the same
// instant.
func (p *Program) invoke(ctx context.Context, op string, caller runtime.Caller, fn func(ctx context.Context, inv *runtime.Invocation) error) error {
	start := time.Now()
	now := p.cfg.Clock.Now()

	err := p.cfg.Ledger.Update(ctx, func(ctx context.Context, tx ledger.Tx) error {
		if caller.Expired(now) {
			return failf(ErrInvocationExpired, "expired at %d, now %d", caller.ExpiresAt, now.Unix())
		}
		if caller.HasSignature() {
			if err := tx.RecordSignature(ctx, caller.Signature); err != nil {
				return err
			}
		}
		var signers []solana.PublicKey
		if !caller.Key.IsZero() {
			signers = append(signers, caller.Key)
		}
		inv := runtime.New(runtime.Config{
			ProgramID: p.cfg.ProgramID,
			Tx:        tx,
			Now:       now,
			Rent:      p.cfg.Rent,
			Signers:   signers,
		})
		return fn(ctx, inv)
	})
	err = translate(err)

	metrics.InvocationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.InvocationsTotal.WithLabelValues(op, resultLabel(err)).Inc()
	if err != nil {
		if _, ok := AsError(err); ok {
			p.log.Debug("contest: invocation rejected", "operation", op, "caller", caller.Key, "error", err)
		} else {
			p.log.Error("contest: invocation failed", "operation", op, "caller", caller.Key, "error", err)
		}
		return err
	}
	p.log.Debug("contest: invocation committed", "operation", op, "caller", caller.Key, "duration", time.Since(start))
	return nil
}

// view runs fn against a read-only snapshot.
func (p *Program) view(ctx context.Context, fn func(ctx context.Context, inv *runtime.Invocation) error) error {
	now := p.cfg.Clock.Now()
	err := p.cfg.Ledger.View(ctx, func(ctx context.Context, tx ledger.Tx) error {
		return fn(ctx, runtime.New(runtime.Config{
			ProgramID: p.cfg.ProgramID,
			Tx:        tx,
			Now:       now,
			Rent:      p.cfg.Rent,
		}))
	})
	return translate(err)
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return "error"
}
