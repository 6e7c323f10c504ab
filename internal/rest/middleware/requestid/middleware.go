package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Header is the request ID header read from and echoed to clients.
const Header = "X-Request-Id"

type requestIDCtxKey struct{}

// FromContext retrieves the request ID stored by the middleware.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}

	return ""
}

// Middleware tags every request with an ID for log correlation,
// honoring a caller-supplied one when present.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new request ID middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler that assigns
// request IDs.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		id := req.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(Header, id)

		ctx := context.WithValue(req.Context(), requestIDCtxKey{}, id)

		return next(w, req.WithContext(ctx))
	}
}
