package database

import (
	"github.com/mentorhub/repengine/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	vote       *models.VoteModel
	target     *models.TargetModel
	reputation *models.ReputationModel
	badge      *models.BadgeModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		vote:       models.NewVote(db, logger),
		target:     models.NewTarget(db, logger),
		reputation: models.NewReputation(db, logger),
		badge:      models.NewBadge(db, logger),
	}
}

// Vote returns the vote model repository.
func (r *Repository) Vote() *models.VoteModel {
	return r.vote
}

// Target returns the target registry model repository.
func (r *Repository) Target() *models.TargetModel {
	return r.target
}

// Reputation returns the reputation model repository.
func (r *Repository) Reputation() *models.ReputationModel {
	return r.reputation
}

// Badge returns the badge model repository.
func (r *Repository) Badge() *models.BadgeModel {
	return r.badge
}
