package types_test

import (
	"testing"
	"time"

	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCursorRoundtrip(t *testing.T) {
	t.Parallel()

	cursor := &types.HistoryCursor{
		CreatedAt: time.Unix(0, 1735689600123456789),
		ID:        42,
	}

	token := cursor.Encode()
	require.NotEmpty(t, token)

	decoded, err := types.DecodeHistoryCursor(token)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.ID, decoded.ID)
}

func TestHistoryCursorEmptyToken(t *testing.T) {
	t.Parallel()

	cursor, err := types.DecodeHistoryCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	var nilCursor *types.HistoryCursor

	assert.Empty(t, nilCursor.Encode())
}

func TestHistoryCursorInvalidTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"not base64", "not base64!!"},
		{"missing separator", "MTIzNDU2"},
		{"non-numeric timestamp", "YWJjfDQy"},
		{"non-numeric id", "MTIzfGFiYw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := types.DecodeHistoryCursor(tt.token)
			require.ErrorIs(t, err, types.ErrInvalidCursor)
		})
	}
}

func TestVoteSourceRef(t *testing.T) {
	t.Parallel()

	target := types.Target{Type: types.TargetTypeArticle, ID: 7}

	created := types.VoteSourceRef(3, types.RoleMentee, target, types.VoteTransitionCreated)
	removed := types.VoteSourceRef(3, types.RoleMentee, target, types.VoteTransitionRemoved)

	assert.Equal(t, "vote:3:mentee:article:7:created", created)
	assert.Equal(t, "vote:3:mentee:article:7:removed", removed)
	assert.NotEqual(t, created, removed)
}

func TestReasonCodeValid(t *testing.T) {
	t.Parallel()

	assert.True(t, types.ReasonVoteReceived.Valid())
	assert.True(t, types.ReasonVoteRemoved.Valid())
	assert.True(t, types.ReasonManualAdjustment.Valid())
	assert.True(t, types.ReasonContentMilestone.Valid())
	assert.False(t, types.ReasonCode("bribery").Valid())
}
