package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/malbeclabs/fitfreak/ledger/pkg/genesis"
	"github.com/malbeclabs/fitfreak/ledger/pkg/ledger"
)

// ApplyGenesis funds the accounts listed in path. With dryRun it only
// prints the plan.
func ApplyGenesis(ctx context.Context, log *slog.Logger, l ledger.Ledger, path string, dryRun bool, out io.Writer) error {
	f, err := genesis.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Genesis %s lists %d account(s):\n", path, len(f.Accounts))
	for _, a := range f.Accounts {
		fmt.Fprintf(out, "  - %s: %d lamports\n", a.Address, a.Lamports)
	}
	if dryRun {
		fmt.Fprintln(out, "\n[DRY RUN] Would fund the above accounts")
		return nil
	}

	funded, err := genesis.Apply(ctx, l, f)
	if err != nil {
		return fmt.Errorf("failed to apply genesis: %w", err)
	}
	log.Info("genesis applied", "path", path, "funded", funded)
	fmt.Fprintf(out, "\nFunded %d account(s), %d already existed\n", funded, len(f.Accounts)-funded)
	return nil
}
