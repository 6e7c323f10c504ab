package types

import (
	"time"

	"github.com/uptrace/bun"
)

// Badge is static reference data describing one reputation milestone.
type Badge struct {
	bun.BaseModel `bun:"table:badges"`

	ID                  int64  `bun:",pk,autoincrement" json:"id"`
	Name                string `bun:",notnull,unique"   json:"name"`
	ReputationThreshold int64  `bun:",notnull"          json:"reputationThreshold"`
	Description         string `bun:",nullzero"         json:"description,omitempty"`
}

// UserBadge records one award. Awards are monotonic: once a row exists
// it is never removed, even if reputation later drops below the badge
// threshold. Uniqueness over (user_id, role, badge_id) makes evaluation
// safe to replay.
type UserBadge struct {
	bun.BaseModel `bun:"table:user_badges"`

	UserID    int64     `bun:",pk"      json:"userId"`
	Role      Role      `bun:",pk"      json:"role"`
	BadgeID   int64     `bun:",pk"      json:"badgeId"`
	AwardedAt time.Time `bun:",notnull" json:"awardedAt"`
}

// AwardedBadge is the read-side join of an award with its badge.
type AwardedBadge struct {
	Badge     Badge     `json:"badge"`
	AwardedAt time.Time `json:"awardedAt"`
}
