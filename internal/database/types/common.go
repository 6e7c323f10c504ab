package types

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var (
	ErrInvalidVoteType   = errors.New("invalid vote type")
	ErrInvalidTargetType = errors.New("invalid target type")
	ErrInvalidRole       = errors.New("invalid role")
	ErrTargetNotFound    = errors.New("target not found")
	ErrVoteNotFound      = errors.New("vote not found")
)

// Role represents the platform role a user acts under. Reputation and
// votes are tracked per (user, role) pair because the same account can
// hold both roles with independent standing.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleMentor || r == RoleMentee
}

// TargetType represents the kind of content entity being voted on.
type TargetType string

const (
	TargetTypeArticle       TargetType = "article"
	TargetTypeCommunityPost TargetType = "communityPost"
	TargetTypeQuestion      TargetType = "question"
	TargetTypeAnswer        TargetType = "answer"
)

// TargetTypes lists all known target types in a stable order.
func TargetTypes() []TargetType {
	return []TargetType{TargetTypeArticle, TargetTypeCommunityPost, TargetTypeQuestion, TargetTypeAnswer}
}

// Valid reports whether the target type is one of the known values.
func (t TargetType) Valid() bool {
	switch t {
	case TargetTypeArticle, TargetTypeCommunityPost, TargetTypeQuestion, TargetTypeAnswer:
		return true
	default:
		return false
	}
}

// Target identifies one content entity.
type Target struct {
	Type TargetType `json:"type"`
	ID   int64      `json:"id"`
}

// TargetRef is the engine's registry row for a votable content entity.
// The content layer owns the entity itself; this row exists so votes can
// be validated and author reputation credited without reaching into
// content tables.
type TargetRef struct {
	bun.BaseModel `bun:"table:target_refs"`

	TargetType TargetType `bun:",pk"      json:"targetType"`
	TargetID   int64      `bun:",pk"      json:"targetId"`
	AuthorID   int64      `bun:",notnull" json:"authorId"`
	AuthorRole Role       `bun:",notnull" json:"authorRole"`
	CreatedAt  time.Time  `bun:",notnull" json:"createdAt"`
}
