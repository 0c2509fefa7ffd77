package contest

import "github.com/gagliardetto/solana-go"

const (
	EventContestCreated     = "ContestCreated"
	EventParticipantJoined  = "ParticipantJoined"
	EventRewardsDistributed = "RewardsDistributed"
	EventContestClosed      = "ContestClosed"
	EventStakeRefunded      = "StakeRefunded"
)

type ContestCreated struct {
	Contest     solana.PublicKey `json:"contest"`
	ContestID   uint64           `json:"contest_id"`
	Name        string           `json:"name"`
	Authority   solana.PublicKey `json:"authority"`
	StakeAmount uint64           `json:"stake_amount"`
	StartTime   int64            `json:"start_time"`
	EndTime     int64            `json:"end_time"`
}

type ParticipantJoined struct {
	Contest          solana.PublicKey `json:"contest"`
	Participant      solana.PublicKey `json:"participant"`
	ParticipantCount uint8            `json:"participant_count"`
	PrizePool        uint64           `json:"prize_pool"`
}

type RewardsDistributed struct {
	Contest solana.PublicKey    `json:"contest"`
	Winners [3]solana.PublicKey `json:"winners"`
	Payout  Payout              `json:"payout"`
}

type ContestClosed struct {
	Contest   solana.PublicKey `json:"contest"`
	Authority solana.PublicKey `json:"authority"`
}

type StakeRefunded struct {
	Contest     solana.PublicKey `json:"contest"`
	Participant solana.PublicKey `json:"participant"`
	Amount      uint64           `json:"amount"`
}
