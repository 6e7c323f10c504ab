package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mentorhub/repengine/internal/database/dbretry"
	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/setup/config"
	"github.com/mentorhub/repengine/internal/vote"
	"go.uber.org/zap"
)

// VoteStore is the persistence surface the vote service needs.
// *models.VoteModel satisfies it.
type VoteStore interface {
	CastVote(
		ctx context.Context, voterID int64, voterRole types.Role, target types.Target, voteType types.VoteType,
	) (*types.CastResult, error)
	GetVote(ctx context.Context, voterID int64, voterRole types.Role, target types.Target) (*types.Vote, error)
	GetCounters(ctx context.Context, target types.Target) (*types.VoteCounters, error)
	RecountCounters(ctx context.Context, target types.Target) (*types.VoteCounters, bool, error)
}

// TargetStore resolves votable content entities. *models.TargetModel
// satisfies it.
type TargetStore interface {
	GetTarget(ctx context.Context, target types.Target) (*types.TargetRef, error)
	RegisterTarget(ctx context.Context, ref *types.TargetRef) error
}

// CastRequest carries one cast attempt through the service.
type CastRequest struct {
	VoterID   int64
	VoterRole types.Role
	Target    types.Target
	VoteType  types.VoteType
}

// CastOutcome is what a completed cast reports back. CurrentVote is nil
// after a toggle-off.
type CastOutcome struct {
	Transition  types.VoteTransition
	CurrentVote *types.VoteType
	Counters    types.VoteCounters
}

// TargetVotes is the read-side view of a target: its counters plus the
// requesting voter's current vote, if any.
type TargetVotes struct {
	CurrentVote *types.VoteType
	Counters    types.VoteCounters
}

// VoteService orchestrates a cast: policy check, target resolution, the
// toggle transaction with bounded conflict retry, then author ledger
// credit. Vote state and ledger credit commit in separate transactions;
// the stable source_ref keeps repeated toggles netting correctly.
type VoteService struct {
	store       VoteStore
	targets     TargetStore
	reputation  *ReputationService
	policy      *vote.Policy
	points      map[types.TargetType]config.PointRule
	maxAttempts int
	logger      *zap.Logger
}

// NewVote creates a new vote service.
func NewVote(
	store VoteStore,
	targets TargetStore,
	reputation *ReputationService,
	policy *vote.Policy,
	points map[types.TargetType]config.PointRule,
	maxAttempts int,
	logger *zap.Logger,
) *VoteService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &VoteService{
		store:       store,
		targets:     targets,
		reputation:  reputation,
		policy:      policy,
		points:      points,
		maxAttempts: maxAttempts,
		logger:      logger.Named("vote_service"),
	}
}

// Cast applies one vote toggle and credits the target's author.
func (s *VoteService) Cast(ctx context.Context, req CastRequest) (*CastOutcome, error) {
	if !req.VoterRole.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRole, req.VoterRole)
	}

	if !req.Target.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidTargetType, req.Target.Type)
	}

	if !req.VoteType.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidVoteType, req.VoteType)
	}

	if !s.policy.CanVote(req.VoterRole, req.Target.Type) {
		return nil, fmt.Errorf("%w: %s on %s", vote.ErrForbiddenRole, req.VoterRole, req.Target.Type)
	}

	ref, err := s.targets.GetTarget(ctx, req.Target)
	if err != nil {
		return nil, err
	}

	result, err := s.castWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	// The toggle has committed; failing the request now would push the
	// client into a retry whose removal appends an unpaired ledger entry.
	// Surface the committed outcome and log the lost credit for operators.
	if err := s.creditAuthor(ctx, req, ref, result); err != nil {
		s.logger.Warn("Vote committed but author credit failed",
			zap.Error(err),
			zap.Int64("authorID", ref.AuthorID),
			zap.Int64("voterID", req.VoterID),
			zap.String("targetType", string(req.Target.Type)),
			zap.Int64("targetID", req.Target.ID),
			zap.String("transition", string(result.Transition)))
	}

	outcome := &CastOutcome{
		Transition: result.Transition,
		Counters:   result.Counters,
	}
	if result.Transition != types.VoteTransitionRemoved {
		current := req.VoteType
		outcome.CurrentVote = &current
	}

	return outcome, nil
}

// castWithRetry runs the toggle transaction, re-reading state for a
// bounded number of attempts when a concurrent cast wins the race.
// Transient database errors are retried inside each attempt.
func (s *VoteService) castWithRetry(ctx context.Context, req CastRequest) (*types.CastResult, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := dbretry.Operation(ctx, func(ctx context.Context) (*types.CastResult, error) {
			return s.store.CastVote(ctx, req.VoterID, req.VoterRole, req.Target, req.VoteType)
		})
		if err == nil {
			return result, nil
		}

		if !errors.Is(err, types.ErrCastConflict) {
			return nil, err
		}

		lastErr = err

		s.logger.Debug("Cast lost a toggle race, retrying",
			zap.Int("attempt", attempt),
			zap.Int64("voterID", req.VoterID),
			zap.String("targetType", string(req.Target.Type)),
			zap.Int64("targetID", req.Target.ID))
	}

	return nil, fmt.Errorf("%w: %w", types.ErrConflictRetry, lastErr)
}

// creditAuthor appends the ledger entry the transition implies for the
// target's author. Self-votes move counters but earn nothing.
func (s *VoteService) creditAuthor(
	ctx context.Context, req CastRequest, ref *types.TargetRef, result *types.CastResult,
) error {
	if ref.AuthorID == req.VoterID {
		return nil
	}

	delta := s.ledgerDelta(req.Target.Type, result.Transition, result.PreviousType, req.VoteType)
	if delta == 0 {
		return nil
	}

	reason := types.ReasonVoteReceived
	if result.Transition == types.VoteTransitionRemoved {
		reason = types.ReasonVoteRemoved
	}

	event := &types.ReputationEvent{
		UserID:     ref.AuthorID,
		Role:       ref.AuthorRole,
		Delta:      delta,
		ReasonCode: reason,
		SourceRef:  types.VoteSourceRef(req.VoterID, req.VoterRole, req.Target, result.Transition),
	}

	if _, err := s.reputation.Apply(ctx, event); err != nil {
		return fmt.Errorf("failed to credit author: %w", err)
	}

	return nil
}

// ledgerDelta maps a toggle transition to the author's reputation
// change using the configured point table. Target types without a point
// rule contribute nothing.
func (s *VoteService) ledgerDelta(
	targetType types.TargetType, transition types.VoteTransition, previous, requested types.VoteType,
) int64 {
	rule, ok := s.points[targetType]
	if !ok {
		return 0
	}

	value := func(voteType types.VoteType) int64 {
		if voteType == types.VoteTypeUpvote {
			return rule.Upvote
		}

		return rule.Downvote
	}

	switch transition {
	case types.VoteTransitionCreated:
		return value(requested)
	case types.VoteTransitionRemoved:
		return -value(requested)
	case types.VoteTransitionSwitched:
		return value(requested) - value(previous)
	default:
		return 0
	}
}

// TargetVotes returns a target's counters and, when voterID is
// positive and the role valid, that voter's current vote.
func (s *VoteService) TargetVotes(
	ctx context.Context, target types.Target, voterID int64, voterRole types.Role,
) (*TargetVotes, error) {
	if !target.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidTargetType, target.Type)
	}

	if _, err := s.targets.GetTarget(ctx, target); err != nil {
		return nil, err
	}

	counters, err := s.store.GetCounters(ctx, target)
	if err != nil {
		return nil, err
	}

	view := &TargetVotes{Counters: *counters}

	if voterID > 0 && voterRole.Valid() {
		current, err := s.store.GetVote(ctx, voterID, voterRole, target)

		switch {
		case errors.Is(err, types.ErrVoteNotFound):
		case err != nil:
			return nil, err
		default:
			view.CurrentVote = &current.VoteType
		}
	}

	return view, nil
}

// RegisterTarget records a votable content entity for the content
// layer. Idempotent on the (type, id) pair.
func (s *VoteService) RegisterTarget(ctx context.Context, ref *types.TargetRef) error {
	if !ref.TargetType.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidTargetType, ref.TargetType)
	}

	if !ref.AuthorRole.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidRole, ref.AuthorRole)
	}

	return s.targets.RegisterTarget(ctx, ref)
}

// ReconcileCounters rebuilds a target's cached counters from the votes
// table, repairing and reporting drift.
func (s *VoteService) ReconcileCounters(ctx context.Context, target types.Target) (*types.VoteCounters, bool, error) {
	return s.store.RecountCounters(ctx, target)
}
