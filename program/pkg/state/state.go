// Package state defines the on-ledger record layouts of the contest program.
//
// Every record is Borsh encoded, prefixed by an 8-byte discriminator and
// zero-padded to a fixed size so field offsets are stable across versions
// and readable by external indexers.
package state

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// MaxNameLen is the longest contest name, in bytes.
const MaxNameLen = 32

const discriminatorLen = 8

const (
	// ContestSize: 8 (discriminator) + 32 + 8 + (4 + 32) + 8 + 8 + 8 + 8 x 1 + 8.
	ContestSize = 124
	// ParticipantSize: 8 (discriminator) + 32 + 32 + 8 + 1 + 1.
	ParticipantSize = 82
	// CounterSize: 8 (discriminator) + 32 + 8 + 1.
	CounterSize = 49
)

var (
	ErrInvalidDiscriminator = errors.New("invalid account discriminator")
	ErrNameTooLong          = fmt.Errorf("name exceeds %d bytes", MaxNameLen)
	ErrRecordTooLarge       = errors.New("record exceeds fixed size")
)

var (
	ContestDiscriminator     = discriminator("Contest")
	ParticipantDiscriminator = discriminator("ParticipantAccount")
	CounterDiscriminator     = discriminator("ContestCounter")
)

func discriminator(name string) [discriminatorLen]byte {
	h := sha256.Sum256([]byte("account:" + name))
	var d [discriminatorLen]byte
	copy(d[:], h[:discriminatorLen])
	return d
}

// Contest is one staking round.
type Contest struct {
	Authority          solana.PublicKey // 32 bytes
	ContestID          uint64           // 8 bytes
	Name               string           // 4 + up to 32 bytes
	StakeAmount        uint64           // 8 bytes
	StartTime          int64            // 8 bytes, unix seconds
	EndTime            int64            // 8 bytes, unix seconds
	MaxParticipants    uint8
	MinParticipants    uint8
	ParticipantCount   uint8
	RefundedCount      uint8
	IsActive           bool
	RewardsDistributed bool
	Bump               uint8
	VaultBump          uint8
	CreatedAt          int64 // 8 bytes, unix seconds
}

// Staked is the number of stakes still held in escrow.
func (c *Contest) Staked() uint8 {
	return c.ParticipantCount - c.RefundedCount
}

// ParticipantAccount records that a participant joined a contest.
type ParticipantAccount struct {
	Contest     solana.PublicKey
	Participant solana.PublicKey
	JoinedAt    int64
	Refunded    bool
	Bump        uint8
}

// ContestCounter issues contest ids for one owner.
type ContestCounter struct {
	Owner solana.PublicKey
	Count uint64
	Bump  uint8
}

func (c *Contest) Marshal() ([]byte, error) {
	if len(c.Name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return encode(ContestDiscriminator, *c, ContestSize)
}

func UnmarshalContest(data []byte) (*Contest, error) {
	var c Contest
	if err := decode(data, ContestDiscriminator, &c); err != nil {
		return nil, fmt.Errorf("failed to decode contest: %w", err)
	}
	return &c, nil
}

func (p *ParticipantAccount) Marshal() ([]byte, error) {
	return encode(ParticipantDiscriminator, *p, ParticipantSize)
}

func UnmarshalParticipant(data []byte) (*ParticipantAccount, error) {
	var p ParticipantAccount
	if err := decode(data, ParticipantDiscriminator, &p); err != nil {
		return nil, fmt.Errorf("failed to decode participant: %w", err)
	}
	return &p, nil
}

func (c *ContestCounter) Marshal() ([]byte, error) {
	return encode(CounterDiscriminator, *c, CounterSize)
}

func UnmarshalCounter(data []byte) (*ContestCounter, error) {
	var c ContestCounter
	if err := decode(data, CounterDiscriminator, &c); err != nil {
		return nil, fmt.Errorf("failed to decode counter: %w", err)
	}
	return &c, nil
}

func encode(disc [discriminatorLen]byte, v any, size int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	if buf.Len() > size {
		return nil, fmt.Errorf("%w: %d > %d", ErrRecordTooLarge, buf.Len(), size)
	}
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out, nil
}

func decode(data []byte, disc [discriminatorLen]byte, v any) error {
	if len(data) < discriminatorLen || !bytes.Equal(data[:discriminatorLen], disc[:]) {
		return ErrInvalidDiscriminator
	}
	return bin.NewBorshDecoder(data[discriminatorLen:]).Decode(v)
}
