package address_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/malbeclabs/fitfreak/program/pkg/address"
	"github.com/stretchr/testify/require"
)

func TestFitFreak_Address_Deterministic(t *testing.T) {
	t.Parallel()

	d := address.New(address.DefaultProgramID)
	owner := solana.NewWallet().PublicKey()

	a1, b1, err := d.Contest(owner, 7)
	require.NoError(t, err)
	a2, b2, err := d.Contest(owner, 7)
	require.NoError(t, err)
	require.Equal(t, a1, a2)
	require.Equal(t, b1, b2)

	other, _, err := d.Contest(owner, 8)
	require.NoError(t, err)
	require.NotEqual(t, a1, other)
}

func TestFitFreak_Address_TagSeparated(t *testing.T) {
	t.Parallel()

	d := address.New(address.DefaultProgramID)
	key := solana.NewWallet().PublicKey()

	counter, _, err := d.Counter(key)
	require.NoError(t, err)
	vault, _, err := d.Vault(key)
	require.NoError(t, err)
	require.NotEqual(t, counter, vault)

	// Same seeds under another program derive elsewhere.
	otherProgram := address.New(solana.NewWallet().PublicKey())
	counter2, _, err := otherProgram.Counter(key)
	require.NoError(t, err)
	require.NotEqual(t, counter, counter2)
}

func TestFitFreak_Address_Verify(t *testing.T) {
	t.Parallel()

	d := address.New(address.DefaultProgramID)
	contest := solana.NewWallet().PublicKey()
	participant := solana.NewWallet().PublicKey()

	addr, bump, err := d.Participant(contest, participant)
	require.NoError(t, err)

	got, err := d.Verify(addr, address.TagParticipant, contest.Bytes(), participant.Bytes())
	require.NoError(t, err)
	require.Equal(t, bump, got)

	_, err = d.Verify(addr, address.TagParticipant, participant.Bytes(), contest.Bytes())
	require.ErrorIs(t, err, address.ErrAddressMismatch)

	// The bump-suffixed seeds recreate the same address.
	created, err := solana.CreateProgramAddress(
		address.WithBump(address.TagParticipant, bump, contest.Bytes(), participant.Bytes()),
		address.DefaultProgramID,
	)
	require.NoError(t, err)
	require.Equal(t, addr, created)
}

func TestFitFreak_Address_U64LittleEndian(t *testing.T) {
	t.Parallel()
	require.Equal(t, []byte{1, 2, 0, 0, 0, 0, 0, 0}, address.U64(0x0201))
}
