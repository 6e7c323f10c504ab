package types

import "time"

// CastVoteRequest is the body of POST /v1/votes.
type CastVoteRequest struct {
	VoterID    int64  `json:"voterId"`
	VoterRole  string `json:"voterRole"`
	TargetType string `json:"targetType"`
	TargetID   int64  `json:"targetId"`
	VoteType   string `json:"voteType"`
}

// VoteCounters is the public view of a target's vote tallies.
type VoteCounters struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

// CastVoteResponse reports the outcome of a cast. CurrentVote is null
// after a toggle-off.
type CastVoteResponse struct {
	Transition  string       `json:"transition"`
	CurrentVote *string      `json:"currentVote"`
	Counters    VoteCounters `json:"counters"`
}

// GetTargetVotesResponse is the read-side view of a target's votes.
type GetTargetVotesResponse struct {
	CurrentVote *string      `json:"currentVote"`
	Counters    VoteCounters `json:"counters"`
}

// RegisterTargetRequest is the body of POST /v1/targets, used by the
// content layer to publish votable entities.
type RegisterTargetRequest struct {
	TargetType string `json:"targetType"`
	TargetID   int64  `json:"targetId"`
	AuthorID   int64  `json:"authorId"`
	AuthorRole string `json:"authorRole"`
}

// AdjustmentRequest is the body of POST /v1/reputation/adjustments.
type AdjustmentRequest struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Points int64  `json:"points"`
	Reason string `json:"reason"`
}

// AdjustmentResponse reports the total after a manual adjustment.
type AdjustmentResponse struct {
	NewTotal int64 `json:"newTotal"`
}

// ReputationResponse reports a (user, role) pair's current total.
type ReputationResponse struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	Total  int64  `json:"total"`
}

// ReputationEvent is the public view of one ledger entry.
type ReputationEvent struct {
	ID          int64     `json:"id"`
	Delta       int64     `json:"delta"`
	ReasonCode  string    `json:"reasonCode"`
	SourceRef   string    `json:"sourceRef,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryResponse is one page of a pair's ledger history. NextCursor is
// empty on the last page.
type HistoryResponse struct {
	Items      []ReputationEvent `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// Badge is the public view of a badge definition.
type Badge struct {
	Name                string `json:"name"`
	ReputationThreshold int64  `json:"reputationThreshold"`
	Description         string `json:"description,omitempty"`
}

// AwardedBadge pairs a badge with when the user earned it.
type AwardedBadge struct {
	Badge

	AwardedAt time.Time `json:"awardedAt"`
}

// BadgesResponse lists the badges a (user, role) pair holds.
type BadgesResponse struct {
	Badges []AwardedBadge `json:"badges"`
}

// BadgeListResponse lists all badge definitions.
type BadgeListResponse struct {
	Badges []Badge `json:"badges"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
