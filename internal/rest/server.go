package rest

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/mentorhub/repengine/internal/database"
	"github.com/mentorhub/repengine/internal/rest/handler"
	"github.com/mentorhub/repengine/internal/rest/middleware/header"
	"github.com/mentorhub/repengine/internal/rest/middleware/ratelimit"
	"github.com/mentorhub/repengine/internal/rest/middleware/requestid"
	"github.com/mentorhub/repengine/internal/setup/config"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	voteHandler       *handler.VoteHandler
	reputationHandler *handler.ReputationHandler
	badgeHandler      *handler.BadgeHandler
}

// NewServer creates a new REST API server.
func NewServer(db database.Client, logger *zap.Logger, config *config.API) (http.Handler, error) {
	// Create server instance with handlers
	server := &Server{
		voteHandler:       handler.NewVoteHandler(db, logger),
		reputationHandler: handler.NewReputationHandler(db, logger),
		badgeHandler:      handler.NewBadgeHandler(db, logger),
	}

	// Create middleware instances
	headerMiddleware := header.New(logger)
	requestIDMiddleware := requestid.New(logger)
	rateLimiter := ratelimit.New(&config.RateLimit, logger)

	// Create base router
	router := bunrouter.New()

	// Create API routes group
	router.Use(
		headerMiddleware.AsRESTMiddleware,
		requestIDMiddleware.AsRESTMiddleware,
		rateLimiter.AsRESTMiddleware,
	).WithGroup("/v1", func(g *bunrouter.Group) {
		g.POST("/votes", server.voteHandler.CastVote)
		g.GET("/votes/:targetType/:targetId", server.voteHandler.GetTargetVotes)
		g.POST("/targets", server.voteHandler.RegisterTarget)
		g.POST("/reputation/adjustments", server.reputationHandler.Adjust)
		g.GET("/reputation/:userId", server.reputationHandler.GetReputation)
		g.GET("/reputation/:userId/history", server.reputationHandler.GetHistory)
		g.GET("/users/:userId/badges", server.badgeHandler.GetUserBadges)
		g.GET("/badges", server.badgeHandler.ListBadges)
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router), nil
}
