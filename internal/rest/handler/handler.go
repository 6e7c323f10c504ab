// Package handler implements the REST endpoint handlers.
package handler

import (
	"errors"
	"net/http"

	dbTypes "github.com/mentorhub/repengine/internal/database/types"
	restTypes "github.com/mentorhub/repengine/internal/rest/types"
	"github.com/mentorhub/repengine/internal/vote"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// writeError maps a service error onto its HTTP status and writes the
// JSON error body. Unclassified errors are logged and hidden behind a
// generic 500.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, vote.ErrForbiddenRole):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, dbTypes.ErrInvalidVoteType),
		errors.Is(err, dbTypes.ErrInvalidTargetType),
		errors.Is(err, dbTypes.ErrInvalidRole),
		errors.Is(err, dbTypes.ErrBlankDescription),
		errors.Is(err, dbTypes.ErrZeroDelta),
		errors.Is(err, dbTypes.ErrInvalidCursor):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, dbTypes.ErrTargetNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, dbTypes.ErrConflictRetry):
		status = http.StatusConflict
		message = dbTypes.ErrConflictRetry.Error()
	default:
		logger.Error("Request failed", zap.Error(err))
	}

	w.WriteHeader(status)

	return bunrouter.JSON(w, restTypes.ErrorResponse{Error: message})
}

// writeBadRequest writes a 400 with the given message.
func writeBadRequest(w http.ResponseWriter, message string) error {
	w.WriteHeader(http.StatusBadRequest)

	return bunrouter.JSON(w, restTypes.ErrorResponse{Error: message})
}
