package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mentorhub/repengine/internal/database/service"
	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/setup/config"
	"github.com/mentorhub/repengine/internal/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	authorID = int64(99)
	voterID  = int64(3)
)

var articleTarget = types.Target{Type: types.TargetTypeArticle, ID: 7}

// testEngine wires the vote service against the in-memory fakes.
type testEngine struct {
	votes      *fakeVoteStore
	targets    *fakeTargetStore
	reputation *fakeReputationStore
	badges     *fakeBadgeStore
	service    *service.VoteService
	repService *service.ReputationService
}

func newTestEngine(t *testing.T, badges ...*types.Badge) *testEngine {
	t.Helper()

	logger := zap.NewNop()
	votes := newFakeVoteStore()
	targets := newFakeTargetStore()
	reputation := newFakeReputationStore()
	badgeStore := newFakeBadgeStore(badges...)

	badgeService := service.NewBadge(badgeStore, logger)
	repService := service.NewReputation(reputation, badgeService, nil, 0, logger)

	points := map[types.TargetType]config.PointRule{
		types.TargetTypeArticle:       {Upvote: 10, Downvote: -2},
		types.TargetTypeCommunityPost: {Upvote: 5, Downvote: -1},
		types.TargetTypeQuestion:      {Upvote: 5, Downvote: -1},
		types.TargetTypeAnswer:        {Upvote: 10, Downvote: -2},
	}

	voteService := service.NewVote(votes, targets, repService, vote.DefaultPolicy(), points, 3, logger)

	engine := &testEngine{
		votes:      votes,
		targets:    targets,
		reputation: reputation,
		badges:     badgeStore,
		service:    voteService,
		repService: repService,
	}

	require.NoError(t, targets.RegisterTarget(context.Background(), &types.TargetRef{
		TargetType: articleTarget.Type,
		TargetID:   articleTarget.ID,
		AuthorID:   authorID,
		AuthorRole: types.RoleMentor,
	}))

	return engine
}

func upvoteRequest() service.CastRequest {
	return service.CastRequest{
		VoterID:   voterID,
		VoterRole: types.RoleMentee,
		Target:    articleTarget,
		VoteType:  types.VoteTypeUpvote,
	}
}

// End-to-end flow: upvote credits the author, toggle off takes it
// back, and the ledger nets to zero.
func TestCastScenario(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	// First upvote creates the vote and credits the author.
	outcome, err := engine.service.Cast(ctx, upvoteRequest())
	require.NoError(t, err)

	assert.Equal(t, types.VoteTransitionCreated, outcome.Transition)
	require.NotNil(t, outcome.CurrentVote)
	assert.Equal(t, types.VoteTypeUpvote, *outcome.CurrentVote)
	assert.Equal(t, int64(1), outcome.Counters.Upvotes)
	assert.Equal(t, int64(0), outcome.Counters.Downvotes)

	total, err := engine.repService.CurrentReputation(ctx, authorID, types.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)

	// Same vote again toggles off and reverses the credit.
	outcome, err = engine.service.Cast(ctx, upvoteRequest())
	require.NoError(t, err)

	assert.Equal(t, types.VoteTransitionRemoved, outcome.Transition)
	assert.Nil(t, outcome.CurrentVote)
	assert.Equal(t, int64(0), outcome.Counters.Upvotes)

	total, err = engine.repService.CurrentReputation(ctx, authorID, types.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	events := engine.reputation.eventsFor(authorID, types.RoleMentor)
	require.Len(t, events, 2)
	assert.Equal(t, types.ReasonVoteReceived, events[0].ReasonCode)
	assert.Equal(t, int64(10), events[0].Delta)
	assert.Equal(t, types.ReasonVoteRemoved, events[1].ReasonCode)
	assert.Equal(t, int64(-10), events[1].Delta)
	assert.Equal(t, "vote:3:mentee:article:7:created", events[0].SourceRef)
	assert.Equal(t, "vote:3:mentee:article:7:removed", events[1].SourceRef)
}

func TestCastSwitchAdjustsCountersAndLedger(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.service.Cast(ctx, upvoteRequest())
	require.NoError(t, err)

	req := upvoteRequest()
	req.VoteType = types.VoteTypeDownvote

	outcome, err := engine.service.Cast(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, types.VoteTransitionSwitched, outcome.Transition)
	require.NotNil(t, outcome.CurrentVote)
	assert.Equal(t, types.VoteTypeDownvote, *outcome.CurrentVote)
	assert.Equal(t, int64(0), outcome.Counters.Upvotes)
	assert.Equal(t, int64(1), outcome.Counters.Downvotes)

	// +10 from the upvote, then -12 to land on the downvote's -2.
	total, err := engine.repService.CurrentReputation(ctx, authorID, types.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), total)
}

func TestCastIdempotentToggle(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	// Ten casts of the same vote: even count nets to no vote at all.
	for range 10 {
		_, err := engine.service.Cast(ctx, upvoteRequest())
		require.NoError(t, err)
	}

	view, err := engine.service.TargetVotes(ctx, articleTarget, voterID, types.RoleMentee)
	require.NoError(t, err)

	assert.Nil(t, view.CurrentVote)
	assert.Equal(t, int64(0), view.Counters.Upvotes)
	assert.Equal(t, int64(0), view.Counters.Downvotes)

	total, err := engine.repService.CurrentReputation(ctx, authorID, types.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestCastValidation(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	t.Run("forbidden role", func(t *testing.T) {
		t.Parallel()

		req := upvoteRequest()
		req.VoterRole = types.RoleMentor // mentors may not vote on articles

		_, err := engine.service.Cast(ctx, req)
		require.ErrorIs(t, err, vote.ErrForbiddenRole)
	})

	t.Run("invalid role", func(t *testing.T) {
		t.Parallel()

		req := upvoteRequest()
		req.VoterRole = "admin"

		_, err := engine.service.Cast(ctx, req)
		require.ErrorIs(t, err, types.ErrInvalidRole)
	})

	t.Run("invalid vote type", func(t *testing.T) {
		t.Parallel()

		req := upvoteRequest()
		req.VoteType = "sideways"

		_, err := engine.service.Cast(ctx, req)
		require.ErrorIs(t, err, types.ErrInvalidVoteType)
	})

	t.Run("invalid target type", func(t *testing.T) {
		t.Parallel()

		req := upvoteRequest()
		req.Target.Type = "podcast"

		_, err := engine.service.Cast(ctx, req)
		require.ErrorIs(t, err, types.ErrInvalidTargetType)
	})

	t.Run("unregistered target", func(t *testing.T) {
		t.Parallel()

		req := upvoteRequest()
		req.Target.ID = 12345

		_, err := engine.service.Cast(ctx, req)
		require.ErrorIs(t, err, types.ErrTargetNotFound)
	})
}

func TestCastConflictRetry(t *testing.T) {
	t.Parallel()

	t.Run("recovers within the attempt budget", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t)
		engine.votes.conflicts = 2

		outcome, err := engine.service.Cast(context.Background(), upvoteRequest())
		require.NoError(t, err)
		assert.Equal(t, types.VoteTransitionCreated, outcome.Transition)
	})

	t.Run("survives exhaustion", func(t *testing.T) {
		t.Parallel()

		engine := newTestEngine(t)
		engine.votes.conflicts = 3

		_, err := engine.service.Cast(context.Background(), upvoteRequest())
		require.ErrorIs(t, err, types.ErrConflictRetry)
	})
}

func TestCastSelfVoteEarnsNothing(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	// The author votes on their own article under the mentee role.
	req := service.CastRequest{
		VoterID:   authorID,
		VoterRole: types.RoleMentee,
		Target:    articleTarget,
		VoteType:  types.VoteTypeUpvote,
	}

	outcome, err := engine.service.Cast(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), outcome.Counters.Upvotes)

	total, err := engine.repService.CurrentReputation(ctx, authorID, types.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, engine.reputation.eventsFor(authorID, types.RoleMentor))
}

func TestCastSurvivesLedgerAppendFailure(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	engine.reputation.appendErr = errors.New("connection reset by peer")

	// The toggle commits before the ledger credit runs, so a credit
	// failure must not turn a persisted vote into a failed response.
	outcome, err := engine.service.Cast(ctx, upvoteRequest())
	require.NoError(t, err)
	assert.Equal(t, types.VoteTransitionCreated, outcome.Transition)
	assert.Equal(t, int64(1), outcome.Counters.Upvotes)

	// The vote stands and nothing was appended for the author.
	view, err := engine.service.TargetVotes(ctx, articleTarget, voterID, types.RoleMentee)
	require.NoError(t, err)
	require.NotNil(t, view.CurrentVote)
	assert.Equal(t, types.VoteTypeUpvote, *view.CurrentVote)
	assert.Empty(t, engine.reputation.eventsFor(authorID, types.RoleMentor))

	total, err := engine.repService.CurrentReputation(ctx, authorID, types.RoleMentor)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestTargetVotesWithoutVoter(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.service.Cast(ctx, upvoteRequest())
	require.NoError(t, err)

	view, err := engine.service.TargetVotes(ctx, articleTarget, 0, "")
	require.NoError(t, err)

	assert.Nil(t, view.CurrentVote)
	assert.Equal(t, int64(1), view.Counters.Upvotes)
}

func TestReconcileCountersRepairsSeededDrift(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.service.Cast(ctx, upvoteRequest())
	require.NoError(t, err)

	engine.votes.seedDrift(articleTarget, 5, 2)

	rebuilt, drifted, err := engine.service.ReconcileCounters(ctx, articleTarget)
	require.NoError(t, err)

	assert.True(t, drifted)
	assert.Equal(t, int64(1), rebuilt.Upvotes)
	assert.Equal(t, int64(0), rebuilt.Downvotes)

	// A second pass finds nothing to repair.
	_, drifted, err = engine.service.ReconcileCounters(ctx, articleTarget)
	require.NoError(t, err)
	assert.False(t, drifted)
}
