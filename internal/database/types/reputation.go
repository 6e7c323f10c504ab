package types

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrBlankDescription = errors.New("manual adjustment requires a description")
	ErrZeroDelta        = errors.New("manual adjustment requires non-zero points")
	ErrInvalidCursor    = errors.New("invalid history cursor")

	// ErrLedgerDrift signals that a cached reputation total disagrees with
	// the recomputed ledger sum. The ledger is the truth; only the cache
	// gets repaired, and the error is still surfaced so operators see it.
	ErrLedgerDrift = errors.New("reputation cache diverged from ledger")
)

// ReasonCode classifies why a reputation event was appended.
type ReasonCode string

const (
	ReasonVoteReceived     ReasonCode = "vote_received"
	ReasonVoteRemoved      ReasonCode = "vote_removed"
	ReasonManualAdjustment ReasonCode = "manual_adjustment"
	ReasonContentMilestone ReasonCode = "content_milestone"
)

// Valid reports whether the reason code is one of the known values.
func (r ReasonCode) Valid() bool {
	switch r {
	case ReasonVoteReceived, ReasonVoteRemoved, ReasonManualAdjustment, ReasonContentMilestone:
		return true
	default:
		return false
	}
}

// ReputationEvent is one immutable ledger entry. Rows are only ever
// inserted; reputation for a (user, role) pair is defined as the sum of
// deltas over its events.
type ReputationEvent struct {
	bun.BaseModel `bun:"table:reputation_events"`

	ID          int64      `bun:",pk,autoincrement" json:"id"`
	UserID      int64      `bun:",notnull"          json:"userId"`
	Role        Role       `bun:",notnull"          json:"role"`
	Delta       int64      `bun:",notnull"          json:"delta"`
	ReasonCode  ReasonCode `bun:",notnull"          json:"reasonCode"`
	SourceRef   string     `bun:",nullzero"         json:"sourceRef,omitempty"`
	Description string     `bun:",nullzero"         json:"description,omitempty"`
	CreatedAt   time.Time  `bun:",notnull"          json:"createdAt"`
}

// UserReputation is the cached projection of a user's ledger sum. It is
// written in the same transaction as every ledger append and can always
// be rebuilt from the events table.
type UserReputation struct {
	bun.BaseModel `bun:"table:user_reputation"`

	UserID    int64     `bun:",pk"      json:"userId"`
	Role      Role      `bun:",pk"      json:"role"`
	Total     int64     `bun:",notnull" json:"total"`
	UpdatedAt time.Time `bun:",notnull" json:"updatedAt"`
}

// VoteSourceRef builds the stable idempotency reference pairing a ledger
// entry with the vote transition that caused it. Repeated toggling of the
// same vote produces reconciling entries that share this prefix, so the
// running sum always nets to what the final vote state implies.
func VoteSourceRef(voterID int64, voterRole Role, target Target, transition VoteTransition) string {
	return fmt.Sprintf("vote:%d:%s:%s:%d:%s", voterID, voterRole, target.Type, target.ID, transition)
}

// HistoryCursor is a keyset pagination cursor over reputation events,
// ordered newest-first by (created_at, id). Keyset paging keeps pages
// stable under concurrent appends, which offset paging does not.
type HistoryCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        int64     `json:"id"`
}

// Encode serializes the cursor into an opaque URL-safe token.
func (c *HistoryCursor) Encode() string {
	if c == nil {
		return ""
	}

	raw := fmt.Sprintf("%d|%d", c.CreatedAt.UnixNano(), c.ID)

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeHistoryCursor parses a token produced by Encode. An empty token
// yields a nil cursor, meaning "start from the newest entry".
func DecodeHistoryCursor(token string) (*HistoryCursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidCursor
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	return &HistoryCursor{CreatedAt: time.Unix(0, nanos), ID: id}, nil
}
