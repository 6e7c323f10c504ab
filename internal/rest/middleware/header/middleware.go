package header

import (
	"context"
	"net"
	"net/http"

	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

type remoteAddrCtxKey struct{}

// FromContext retrieves the client address stored by the middleware.
func FromContext(ctx context.Context) string {
	if addr, ok := ctx.Value(remoteAddrCtxKey{}).(string); ok {
		return addr
	}

	return ""
}

// Middleware extracts the client address into the request context so
// downstream middleware keys off a stable identity.
type Middleware struct {
	logger *zap.Logger
}

// New creates a new header middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{
		logger: logger,
	}
}

// AsRESTMiddleware returns a bunrouter middleware handler for client
// address extraction.
func (m *Middleware) AsRESTMiddleware(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		addr := clientAddr(req.Request)
		ctx := context.WithValue(req.Context(), remoteAddrCtxKey{}, addr)

		return next(w, req.WithContext(ctx))
	}
}

// clientAddr strips the port from the remote address. Proxy headers are
// intentionally not trusted here; terminate them upstream.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
