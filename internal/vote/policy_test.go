package vote_test

import (
	"testing"

	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyMatrix(t *testing.T) {
	t.Parallel()

	policy := vote.DefaultPolicy()

	tests := []struct {
		role       types.Role
		targetType types.TargetType
		allowed    bool
	}{
		{types.RoleMentee, types.TargetTypeArticle, true},
		{types.RoleMentee, types.TargetTypeCommunityPost, true},
		{types.RoleMentee, types.TargetTypeQuestion, true},
		{types.RoleMentee, types.TargetTypeAnswer, false},
		{types.RoleMentor, types.TargetTypeArticle, false},
		{types.RoleMentor, types.TargetTypeCommunityPost, false},
		{types.RoleMentor, types.TargetTypeQuestion, true},
		{types.RoleMentor, types.TargetTypeAnswer, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+" on "+string(tt.targetType), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.allowed, policy.CanVote(tt.role, tt.targetType))
		})
	}
}

func TestPolicyUnknownInputs(t *testing.T) {
	t.Parallel()

	policy := vote.DefaultPolicy()

	assert.False(t, policy.CanVote("moderator", types.TargetTypeArticle))
	assert.False(t, policy.CanVote(types.RoleMentee, "podcast"))
	assert.False(t, policy.CanVote("", ""))
}

func TestNewPolicyFromStrings(t *testing.T) {
	t.Parallel()

	t.Run("valid matrix", func(t *testing.T) {
		t.Parallel()

		policy, err := vote.NewPolicyFromStrings(map[string][]string{
			"mentee": {"article"},
			"mentor": {"answer"},
		})
		require.NoError(t, err)

		assert.True(t, policy.CanVote(types.RoleMentee, types.TargetTypeArticle))
		assert.False(t, policy.CanVote(types.RoleMentee, types.TargetTypeAnswer))
		assert.True(t, policy.CanVote(types.RoleMentor, types.TargetTypeAnswer))
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		t.Parallel()

		_, err := vote.NewPolicyFromStrings(map[string][]string{
			"admin": {"article"},
		})
		require.ErrorIs(t, err, types.ErrInvalidRole)
	})

	t.Run("unknown target type rejected", func(t *testing.T) {
		t.Parallel()

		_, err := vote.NewPolicyFromStrings(map[string][]string{
			"mentee": {"podcast"},
		})
		require.ErrorIs(t, err, types.ErrInvalidTargetType)
	})
}
