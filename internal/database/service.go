package database

import (
	"fmt"
	"time"

	"github.com/mentorhub/repengine/internal/database/service"
	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/setup/config"
	"github.com/mentorhub/repengine/internal/vote"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	vote       *service.VoteService
	reputation *service.ReputationService
	badge      *service.BadgeService
}

// NewService creates a new service instance with all services. cache
// may be nil to run without the read-side reputation cache.
func NewService(
	repository *Repository, engine *config.Engine, cache rueidis.Client, logger *zap.Logger,
) (*Service, error) {
	policy, err := buildPolicy(engine)
	if err != nil {
		return nil, err
	}

	points, err := buildPoints(engine, logger)
	if err != nil {
		return nil, err
	}

	badgeService := service.NewBadge(repository.Badge(), logger)
	reputationService := service.NewReputation(
		repository.Reputation(),
		badgeService,
		cache,
		time.Duration(engine.ReputationCacheTTL)*time.Second,
		logger,
	)
	voteService := service.NewVote(
		repository.Vote(),
		repository.Target(),
		reputationService,
		policy,
		points,
		engine.MaxCastAttempts,
		logger,
	)

	return &Service{
		vote:       voteService,
		reputation: reputationService,
		badge:      badgeService,
	}, nil
}

// buildPolicy converts the configured role matrix into a policy,
// falling back to the platform default when none is configured.
func buildPolicy(engine *config.Engine) (*vote.Policy, error) {
	if len(engine.VotePolicy) == 0 {
		return vote.DefaultPolicy(), nil
	}

	policy, err := vote.NewPolicyFromStrings(engine.VotePolicy)
	if err != nil {
		return nil, fmt.Errorf("invalid vote policy: %w", err)
	}

	return policy, nil
}

// buildPoints validates the configured point table's target type keys.
// Target types without a rule stay votable but credit nothing.
func buildPoints(engine *config.Engine, logger *zap.Logger) (map[types.TargetType]config.PointRule, error) {
	points := make(map[types.TargetType]config.PointRule, len(engine.Points))

	for rawType, rule := range engine.Points {
		targetType := types.TargetType(rawType)
		if !targetType.Valid() {
			return nil, fmt.Errorf("invalid point table entry: %w: %q", types.ErrInvalidTargetType, rawType)
		}

		points[targetType] = rule
	}

	for _, targetType := range types.TargetTypes() {
		if _, ok := points[targetType]; !ok {
			logger.Warn("No point rule configured, votes will not credit authors",
				zap.String("targetType", string(targetType)))
		}
	}

	return points, nil
}

// Vote returns the vote service.
func (s *Service) Vote() *service.VoteService {
	return s.vote
}

// Reputation returns the reputation service.
func (s *Service) Reputation() *service.ReputationService {
	return s.reputation
}

// Badge returns the badge service.
func (s *Service) Badge() *service.BadgeService {
	return s.badge
}
