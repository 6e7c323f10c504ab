package handler

import (
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/mentorhub/repengine/internal/database"
	dbTypes "github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/rest/convert"
	restTypes "github.com/mentorhub/repengine/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// ReputationHandler handles reputation-related REST endpoints.
type ReputationHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(db database.Client, logger *zap.Logger) *ReputationHandler {
	return &ReputationHandler{
		db:     db,
		logger: logger,
	}
}

// Adjust applies a manual reputation adjustment.
func (h *ReputationHandler) Adjust(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.AdjustmentRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeBadRequest(w, "invalid request body")
	}

	newTotal, err := h.db.Service().Reputation().Adjust(
		req.Context(), body.UserID, dbTypes.Role(body.Role), body.Points, body.Reason,
	)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.AdjustmentResponse{NewTotal: newTotal})
}

// GetReputation returns a (user, role) pair's current total.
func (h *ReputationHandler) GetReputation(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := strconv.ParseInt(req.Param("userId"), 10, 64)
	if err != nil {
		return writeBadRequest(w, "invalid user id")
	}

	role := dbTypes.Role(req.URL.Query().Get("role"))

	total, err := h.db.Service().Reputation().CurrentReputation(req.Context(), userID, role)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.ReputationResponse{
		UserID: userID,
		Role:   string(role),
		Total:  total,
	})
}

// GetHistory returns one page of a pair's ledger history.
func (h *ReputationHandler) GetHistory(w http.ResponseWriter, req bunrouter.Request) error {
	userID, err := strconv.ParseInt(req.Param("userId"), 10, 64)
	if err != nil {
		return writeBadRequest(w, "invalid user id")
	}

	role := dbTypes.Role(req.URL.Query().Get("role"))

	cursor, err := dbTypes.DecodeHistoryCursor(req.URL.Query().Get("cursor"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var limit int

	if raw := req.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return writeBadRequest(w, "invalid limit")
		}
	}

	events, nextCursor, err := h.db.Service().Reputation().History(req.Context(), userID, role, cursor, limit)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.HistoryResponse{
		Items:      convert.ReputationEvents(events),
		NextCursor: nextCursor.Encode(),
	})
}
