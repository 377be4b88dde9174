package court

import (
	"time"

	"github.com/louisbranch/decicourt/internal/services/court/domain/dispute"
)

// CreateCasePayload files a case against Defendant.
type CreateCasePayload struct {
	Defendant   string `json:"defendant"`
	EvidenceRef string `json:"evidence_ref"`
}

// CommitVotePayload seals a vote. Commitment is 0x-prefixed hex.
type CommitVotePayload struct {
	CaseID     uint64 `json:"case_id"`
	Commitment string `json:"commitment"`
}

// RevealVotePayload opens a sealed vote.
type RevealVotePayload struct {
	CaseID uint64       `json:"case_id"`
	Vote   dispute.Vote `json:"vote"`
	Salt   string       `json:"salt"`
}

// CaseTargetPayload names the case for verdict and appeal commands.
type CaseTargetPayload struct {
	CaseID uint64 `json:"case_id"`
}

// JurorRegisteredPayload records a stake lock.
type JurorRegisteredPayload struct {
	Juror string `json:"juror"`
	Stake uint64 `json:"stake"`
}

// JurorUnregisteredPayload records a stake refund.
type JurorUnregisteredPayload struct {
	Juror  string `json:"juror"`
	Refund uint64 `json:"refund"`
}

// CaseCreatedPayload records a filed case and its jury.
type CaseCreatedPayload struct {
	CaseID         uint64    `json:"case_id"`
	Plaintiff      string    `json:"plaintiff"`
	Defendant      string    `json:"defendant"`
	EvidenceRef    string    `json:"evidence_ref"`
	FilingFee      uint64    `json:"filing_fee"`
	Jurors         []string  `json:"jurors"`
	CommitDeadline time.Time `json:"commit_deadline"`
	RevealDeadline time.Time `json:"reveal_deadline"`
}

// VoteCommittedPayload records a sealed vote.
type VoteCommittedPayload struct {
	CaseID     uint64       `json:"case_id"`
	Round      int          `json:"round"`
	Juror      string       `json:"juror"`
	Commitment dispute.Word `json:"commitment"`
}

// VoteRevealedPayload records an opened vote.
type VoteRevealedPayload struct {
	CaseID uint64       `json:"case_id"`
	Round  int          `json:"round"`
	Juror  string       `json:"juror"`
	Vote   dispute.Vote `json:"vote"`
	Salt   dispute.Word `json:"salt"`
}

// ReputationUpdatedPayload carries the juror's reputation after scoring.
type ReputationUpdatedPayload struct {
	CaseID           uint64 `json:"case_id"`
	Juror            string `json:"juror"`
	Correct          bool   `json:"correct"`
	Score            int    `json:"score"`
	CorrectVotes     int    `json:"correct_votes"`
	TotalVotes       int    `json:"total_votes"`
	ConsecutiveWrong int    `json:"consecutive_wrong"`
}

// JurorPenalizedPayload records stake forfeited to the reward pool.
type JurorPenalizedPayload struct {
	CaseID         uint64 `json:"case_id"`
	Juror          string `json:"juror"`
	Amount         uint64 `json:"amount"`
	RemainingStake uint64 `json:"remaining_stake"`
}

// JurorRewardedPayload records a juror's share of the reward pool.
type JurorRewardedPayload struct {
	CaseID uint64 `json:"case_id"`
	Juror  string `json:"juror"`
	Amount uint64 `json:"amount"`
}

// CasePayoutPayload records a payment to a party.
type CasePayoutPayload struct {
	CaseID    uint64 `json:"case_id"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Reason    string `json:"reason"`
}

// CaseResolvedPayload closes the first round.
type CaseResolvedPayload struct {
	CaseID         uint64       `json:"case_id"`
	WinningSide    dispute.Vote `json:"winning_side"`
	Winner         string       `json:"winner"`
	PlaintiffVotes int          `json:"plaintiff_votes"`
	DefendantVotes int          `json:"defendant_votes"`
	RewardPool     uint64       `json:"reward_pool"`
}

// AppealInitiatedPayload reopens a resolved case with a larger jury.
type AppealInitiatedPayload struct {
	CaseID         uint64    `json:"case_id"`
	Appellant      string    `json:"appellant"`
	Deposit        uint64    `json:"deposit"`
	Jurors         []string  `json:"jurors"`
	CommitDeadline time.Time `json:"commit_deadline"`
	RevealDeadline time.Time `json:"reveal_deadline"`
}

// AppealResolvedPayload closes the appeal round; the case becomes terminal.
type AppealResolvedPayload struct {
	CaseID          uint64       `json:"case_id"`
	WinningSide     dispute.Vote `json:"winning_side"`
	Winner          string       `json:"winner"`
	AppealSucceeded bool         `json:"appeal_succeeded"`
	PlaintiffVotes  int          `json:"plaintiff_votes"`
	DefendantVotes  int          `json:"defendant_votes"`
	RewardPool      uint64       `json:"reward_pool"`
}
