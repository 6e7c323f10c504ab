// Package vote holds the pure voting-eligibility policy. It is the one
// place the permitted-voter matrix lives; every cast consults it before
// any state changes.
package vote

import (
	"errors"
	"fmt"

	"github.com/mentorhub/repengine/internal/database/types"
)

// ErrForbiddenRole signals that the voter's role is not permitted to
// vote on the requested target type.
var ErrForbiddenRole = errors.New("role is not permitted to vote on this target type")

// Policy is an immutable lookup table keyed on (role, target type).
// Build one at startup from configuration and share it freely; it has no
// mutable state.
type Policy struct {
	allowed map[types.Role]map[types.TargetType]bool
}

// NewPolicy builds a policy from a role -> allowed target types matrix.
// Unknown roles or target types in the matrix are carried as-is; CanVote
// simply never matches them.
func NewPolicy(matrix map[types.Role][]types.TargetType) *Policy {
	allowed := make(map[types.Role]map[types.TargetType]bool, len(matrix))
	for role, targetTypes := range matrix {
		set := make(map[types.TargetType]bool, len(targetTypes))
		for _, t := range targetTypes {
			set[t] = true
		}

		allowed[role] = set
	}

	return &Policy{allowed: allowed}
}

// DefaultPolicy returns the platform's standard matrix: mentees vote on
// authored content and questions, mentors vote on questions and answers.
func DefaultPolicy() *Policy {
	return NewPolicy(map[types.Role][]types.TargetType{
		types.RoleMentee: {types.TargetTypeArticle, types.TargetTypeCommunityPost, types.TargetTypeQuestion},
		types.RoleMentor: {types.TargetTypeQuestion, types.TargetTypeAnswer},
	})
}

// NewPolicyFromStrings builds a policy from the raw config matrix,
// rejecting unknown roles or target types so a typo in config.toml fails
// startup instead of silently disabling votes.
func NewPolicyFromStrings(matrix map[string][]string) (*Policy, error) {
	converted := make(map[types.Role][]types.TargetType, len(matrix))

	for rawRole, rawTargets := range matrix {
		role := types.Role(rawRole)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidRole, rawRole)
		}

		targets := make([]types.TargetType, 0, len(rawTargets))

		for _, rawTarget := range rawTargets {
			targetType := types.TargetType(rawTarget)
			if !targetType.Valid() {
				return nil, fmt.Errorf("%w: %q", types.ErrInvalidTargetType, rawTarget)
			}

			targets = append(targets, targetType)
		}

		converted[role] = targets
	}

	return NewPolicy(converted), nil
}

// CanVote reports whether the role may vote on the target type.
func (p *Policy) CanVote(role types.Role, targetType types.TargetType) bool {
	return p.allowed[role][targetType]
}
