package types

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var (
	// ErrCounterInvariant signals that applying a transition would drive a
	// cached counter negative. The vote table and counters have already
	// diverged at that point, so this is never retried or hidden.
	ErrCounterInvariant = errors.New("vote counter invariant violation")

	// ErrCastConflict signals that a concurrent cast on the same
	// (voter, target) pair won the race. Callers re-read state and retry
	// a bounded number of times before surfacing it.
	ErrCastConflict = errors.New("concurrent cast on the same vote")

	// ErrConflictRetry is surfaced once the bounded cast attempts are
	// exhausted. Clients should retry the request.
	ErrConflictRetry = errors.New("vote cast conflicted, retry the request")
)

// VoteType represents the stance of a vote.
type VoteType string

const (
	VoteTypeUpvote   VoteType = "upvote"
	VoteTypeDownvote VoteType = "downvote"
)

// Valid reports whether the vote type is one of the known values.
func (v VoteType) Valid() bool {
	return v == VoteTypeUpvote || v == VoteTypeDownvote
}

// VoteTransition describes which state change a cast produced.
type VoteTransition string

const (
	VoteTransitionCreated  VoteTransition = "created"
	VoteTransitionRemoved  VoteTransition = "removed"
	VoteTransitionSwitched VoteTransition = "switched"
)

// Vote represents one voter's stance on one target. At most one row
// exists per (voter_id, voter_role, target_type, target_id), enforced by
// a unique index rather than application checks alone.
type Vote struct {
	bun.BaseModel `bun:"table:votes"`

	ID         int64      `bun:",pk,autoincrement" json:"id"`
	VoterID    int64      `bun:",notnull"          json:"voterId"`
	VoterRole  Role       `bun:",notnull"          json:"voterRole"`
	TargetType TargetType `bun:",notnull"          json:"targetType"`
	TargetID   int64      `bun:",notnull"          json:"targetId"`
	VoteType   VoteType   `bun:",notnull"          json:"voteType"`
	CreatedAt  time.Time  `bun:",notnull"          json:"createdAt"`
	UpdatedAt  time.Time  `bun:",notnull"          json:"updatedAt"`
}

// VoteCounters is the cached per-target aggregate. It is derived state:
// every mutation happens in the same transaction as the vote row change
// that implies it, and a recount can always rebuild it from the votes
// table.
type VoteCounters struct {
	bun.BaseModel `bun:"table:vote_counters"`

	TargetType TargetType `bun:",pk"      json:"targetType"`
	TargetID   int64      `bun:",pk"      json:"targetId"`
	Upvotes    int64      `bun:",notnull" json:"upvotes"`
	Downvotes  int64      `bun:",notnull" json:"downvotes"`
	UpdatedAt  time.Time  `bun:",notnull" json:"updatedAt"`
}

// CounterDelta is the change a transition applies to a target's counters.
type CounterDelta struct {
	Upvotes   int64
	Downvotes int64
}

// ResolveTransition decides the toggle state machine outcome for a cast.
// existing is nil when the voter holds no vote on the target.
func ResolveTransition(existing *VoteType, requested VoteType) VoteTransition {
	switch {
	case existing == nil:
		return VoteTransitionCreated
	case *existing == requested:
		return VoteTransitionRemoved
	default:
		return VoteTransitionSwitched
	}
}

// TransitionDelta computes the counter change implied by a transition.
// previous is only consulted for switches.
func TransitionDelta(transition VoteTransition, previous, requested VoteType) CounterDelta {
	var delta CounterDelta

	switch transition {
	case VoteTransitionCreated:
		delta.add(requested, 1)
	case VoteTransitionRemoved:
		delta.add(requested, -1)
	case VoteTransitionSwitched:
		delta.add(previous, -1)
		delta.add(requested, 1)
	}

	return delta
}

func (d *CounterDelta) add(voteType VoteType, n int64) {
	if voteType == VoteTypeUpvote {
		d.Upvotes += n
	} else {
		d.Downvotes += n
	}
}

// Apply returns the counters after the delta, or ErrCounterInvariant if
// either counter would go negative.
func (c VoteCounters) Apply(delta CounterDelta) (VoteCounters, error) {
	c.Upvotes += delta.Upvotes
	c.Downvotes += delta.Downvotes

	if c.Upvotes < 0 || c.Downvotes < 0 {
		return c, ErrCounterInvariant
	}

	return c, nil
}

// CastResult is what a completed cast operation reports back to callers.
// PreviousType is only meaningful for removed and switched transitions.
type CastResult struct {
	Transition   VoteTransition
	PreviousType VoteType
	Counters     VoteCounters
}
