package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/malbeclabs/fitfreak/program/pkg/contest"
)

// DeriveContest prints the contest and vault addresses for owner and id.
func DeriveContest(programID, owner solana.PublicKey, id uint64, out io.Writer) error {
	d := address.New(programID)
	c, cbump, err := d.Contest(owner, id)
	if err != nil {
		return err
	}
	v, vbump, err := d.Vault(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "program: %s\nowner:   %s\nid:      %d\ncontest: %s (bump %d)\nvault:   %s (bump %d)\n",
		programID, owner, id, c, cbump, v, vbump)
	return nil
}

// InspectContest prints the decoded contest projection as JSON.
func InspectContest(ctx context.Context, prog *contest.Program, addr solana.PublicKey, out io.Writer) error {
	info, err := prog.GetContestInfo(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to load contest %s: %w", addr, err)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}
