package handler

import (
	"net/http"
	"strconv"

	"github.com/mentorhub/repengine/internal/database"
	dbTypes "github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/rest/convert"
	restTypes "github.com/mentorhub/repengine/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// BadgeHandler handles badge-related REST endpoints.
type BadgeHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewBadgeHandler creates a new badge handler.
func NewBadgeHandler(db database.Client, logger *zap.Logger) *BadgeHandler {
	return &BadgeHandler{
		db:     db,
		logger: logger,
	}
}

// GetUserBadges returns the badges a (user, role) pair holds.
func (h *BadgeHandler) GetUserBadges(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := strconv.ParseInt(req.Param("userId"), 10, 64)
	if err != nil {
		return writeBadRequest(w, "invalid user id")
	}

	role := dbTypes.Role(req.URL.Query().Get("role"))

	badges, err := h.db.Service().Badge().BadgesFor(req.Context(), userID, role)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.BadgesResponse{
		Badges: convert.AwardedBadges(badges),
	})
}

// ListBadges returns all badge definitions.
func (h *BadgeHandler) ListBadges(w http.ResponseWriter, req bunrouter.Request) error {
	badges, err := h.db.Service().Badge().Badges(req.Context())
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.BadgeListResponse{
		Badges: convert.Badges(badges),
	})
}
