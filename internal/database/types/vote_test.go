package types_test

import (
	"testing"

	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTransition(t *testing.T) {
	t.Parallel()

	up := types.VoteTypeUpvote
	down := types.VoteTypeDownvote

	tests := []struct {
		name      string
		existing  *types.VoteType
		requested types.VoteType
		want      types.VoteTransition
	}{
		{"no existing vote creates", nil, up, types.VoteTransitionCreated},
		{"same type removes", &up, up, types.VoteTransitionRemoved},
		{"same downvote removes", &down, down, types.VoteTransitionRemoved},
		{"up to down switches", &up, down, types.VoteTransitionSwitched},
		{"down to up switches", &down, up, types.VoteTransitionSwitched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, types.ResolveTransition(tt.existing, tt.requested))
		})
	}
}

func TestTransitionDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		transition types.VoteTransition
		previous   types.VoteType
		requested  types.VoteType
		want       types.CounterDelta
	}{
		{
			"created upvote",
			types.VoteTransitionCreated, "", types.VoteTypeUpvote,
			types.CounterDelta{Upvotes: 1},
		},
		{
			"created downvote",
			types.VoteTransitionCreated, "", types.VoteTypeDownvote,
			types.CounterDelta{Downvotes: 1},
		},
		{
			"removed upvote",
			types.VoteTransitionRemoved, types.VoteTypeUpvote, types.VoteTypeUpvote,
			types.CounterDelta{Upvotes: -1},
		},
		{
			"removed downvote",
			types.VoteTransitionRemoved, types.VoteTypeDownvote, types.VoteTypeDownvote,
			types.CounterDelta{Downvotes: -1},
		},
		{
			"switched up to down",
			types.VoteTransitionSwitched, types.VoteTypeUpvote, types.VoteTypeDownvote,
			types.CounterDelta{Upvotes: -1, Downvotes: 1},
		},
		{
			"switched down to up",
			types.VoteTransitionSwitched, types.VoteTypeDownvote, types.VoteTypeUpvote,
			types.CounterDelta{Upvotes: 1, Downvotes: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, types.TransitionDelta(tt.transition, tt.previous, tt.requested))
		})
	}
}

func TestCountersApply(t *testing.T) {
	t.Parallel()

	t.Run("applies both counters", func(t *testing.T) {
		t.Parallel()

		counters := types.VoteCounters{Upvotes: 2, Downvotes: 1}

		got, err := counters.Apply(types.CounterDelta{Upvotes: -1, Downvotes: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.Upvotes)
		assert.Equal(t, int64(2), got.Downvotes)
	})

	t.Run("negative upvotes rejected", func(t *testing.T) {
		t.Parallel()

		counters := types.VoteCounters{}

		_, err := counters.Apply(types.CounterDelta{Upvotes: -1})
		require.ErrorIs(t, err, types.ErrCounterInvariant)
	})

	t.Run("negative downvotes rejected", func(t *testing.T) {
		t.Parallel()

		counters := types.VoteCounters{Downvotes: 1}

		_, err := counters.Apply(types.CounterDelta{Downvotes: -2})
		require.ErrorIs(t, err, types.ErrCounterInvariant)
	})
}

func TestVoteTypeValid(t *testing.T) {
	t.Parallel()

	assert.True(t, types.VoteTypeUpvote.Valid())
	assert.True(t, types.VoteTypeDownvote.Valid())
	assert.False(t, types.VoteType("sideways").Valid())
	assert.False(t, types.VoteType("").Valid())
}

// Any toggle sequence must net to what the final vote state implies.
func TestToggleSequenceNetsToFinalState(t *testing.T) {
	t.Parallel()

	counters := types.VoteCounters{}

	var existing *types.VoteType

	apply := func(requested types.VoteType) {
		transition := types.ResolveTransition(existing, requested)

		var previous types.VoteType
		if existing != nil {
			previous = *existing
		}

		next, err := counters.Apply(types.TransitionDelta(transition, previous, requested))
		require.NoError(t, err)

		counters = next

		switch transition {
		case types.VoteTransitionRemoved:
			existing = nil
		case types.VoteTransitionCreated, types.VoteTransitionSwitched:
			v := requested
			existing = &v
		}
	}

	// up, up (off), up, down (switch), down (off), down
	apply(types.VoteTypeUpvote)
	apply(types.VoteTypeUpvote)
	apply(types.VoteTypeUpvote)
	apply(types.VoteTypeDownvote)
	apply(types.VoteTypeDownvote)
	apply(types.VoteTypeDownvote)

	require.NotNil(t, existing)
	assert.Equal(t, types.VoteTypeDownvote, *existing)
	assert.Equal(t, int64(0), counters.Upvotes)
	assert.Equal(t, int64(1), counters.Downvotes)
}
