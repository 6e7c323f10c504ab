package handler

import (
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/mentorhub/repengine/internal/database"
	"github.com/mentorhub/repengine/internal/database/service"
	dbTypes "github.com/mentorhub/repengine/internal/database/types"
	"github.com/mentorhub/repengine/internal/rest/convert"
	restTypes "github.com/mentorhub/repengine/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// VoteHandler handles vote-related REST endpoints.
type VoteHandler struct {
	db     database.Client
	logger *zap.Logger
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(db database.Client, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{
		db:     db,
		logger: logger,
	}
}

// CastVote applies one vote toggle for a voter on a target.
func (h *VoteHandler) CastVote(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.CastVoteRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeBadRequest(w, "invalid request body")
	}

	outcome, err := h.db.Service().Vote().Cast(req.Context(), service.CastRequest{
		VoterID:   body.VoterID,
		VoterRole: dbTypes.Role(body.VoterRole),
		Target: dbTypes.Target{
			Type: dbTypes.TargetType(body.TargetType),
			ID:   body.TargetID,
		},
		VoteType: dbTypes.VoteType(body.VoteType),
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.CastVoteResponse{
		Transition:  string(outcome.Transition),
		CurrentVote: convert.VoteType(outcome.CurrentVote),
		Counters:    convert.Counters(outcome.Counters),
	})
}

// GetTargetVotes returns a target's counters and, when voterId and
// voterRole query parameters are present, that voter's current vote.
func (h *VoteHandler) GetTargetVotes(w http.ResponseWriter, req bunrouter.Request) error {
	targetID, err := strconv.ParseInt(req.Param("targetId"), 10, 64)
	if err != nil {
		return writeBadRequest(w, "invalid target id")
	}

	target := dbTypes.Target{
		Type: dbTypes.TargetType(req.Param("targetType")),
		ID:   targetID,
	}

	var voterID int64

	if raw := req.URL.Query().Get("voterId"); raw != "" {
		voterID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return writeBadRequest(w, "invalid voter id")
		}
	}

	voterRole := dbTypes.Role(req.URL.Query().Get("voterRole"))

	view, err := h.db.Service().Vote().TargetVotes(req.Context(), target, voterID, voterRole)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return bunrouter.JSON(w, restTypes.GetTargetVotesResponse{
		CurrentVote: convert.VoteType(view.CurrentVote),
		Counters:    convert.Counters(view.Counters),
	})
}

// RegisterTarget records a votable content entity for the content
// layer.
func (h *VoteHandler) RegisterTarget(w http.ResponseWriter, req bunrouter.Request) error {
	var body restTypes.RegisterTargetRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeBadRequest(w, "invalid request body")
	}

	err := h.db.Service().Vote().RegisterTarget(req.Context(), &dbTypes.TargetRef{
		TargetType: dbTypes.TargetType(body.TargetType),
		TargetID:   body.TargetID,
		AuthorID:   body.AuthorID,
		AuthorRole: dbTypes.Role(body.AuthorRole),
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}
