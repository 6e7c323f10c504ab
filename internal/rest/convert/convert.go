// Package convert maps database types onto their public REST shapes.
package convert

import (
	dbTypes "github.com/mentorhub/repengine/internal/database/types"
	restTypes "github.com/mentorhub/repengine/internal/rest/types"
)

// Counters converts cached vote counters to the REST view.
func Counters(counters dbTypes.VoteCounters) restTypes.VoteCounters {
	return restTypes.VoteCounters{
		Upvotes:   counters.Upvotes,
		Downvotes: counters.Downvotes,
	}
}

// VoteType converts an optional vote type to its REST representation.
func VoteType(voteType *dbTypes.VoteType) *string {
	if voteType == nil {
		return nil
	}

	s := string(*voteType)

	return &s
}

// ReputationEvents converts a page of ledger entries to the REST view.
func ReputationEvents(events []*dbTypes.ReputationEvent) []restTypes.ReputationEvent {
	items := make([]restTypes.ReputationEvent, len(events))
	for i, event := range events {
		items[i] = restTypes.ReputationEvent{
			ID:          event.ID,
			Delta:       event.Delta,
			ReasonCode:  string(event.ReasonCode),
			SourceRef:   event.SourceRef,
			Description: event.Description,
			CreatedAt:   event.CreatedAt,
		}
	}

	return items
}

// Badge converts a badge definition to the REST view.
func Badge(badge dbTypes.Badge) restTypes.Badge {
	return restTypes.Badge{
		Name:                badge.Name,
		ReputationThreshold: badge.ReputationThreshold,
		Description:         badge.Description,
	}
}

// AwardedBadges converts a user's awards to the REST view.
func AwardedBadges(badges []*dbTypes.AwardedBadge) []restTypes.AwardedBadge {
	awarded := make([]restTypes.AwardedBadge, len(badges))
	for i, b := range badges {
		awarded[i] = restTypes.AwardedBadge{
			Badge:     Badge(b.Badge),
			AwardedAt: b.AwardedAt,
		}
	}

	return awarded
}

// Badges converts badge definitions to the REST view.
func Badges(badges []*dbTypes.Badge) []restTypes.Badge {
	converted := make([]restTypes.Badge, len(badges))
	for i, b := range badges {
		converted[i] = Badge(*b)
	}

	return converted
}
