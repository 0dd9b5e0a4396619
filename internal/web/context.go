package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/packlist/internal/core"
	mw "github.com/JonMunkholm/packlist/internal/web/middleware"
)

// withRequestMetadata adds the client address and User-Agent to the request
// context for the audit trail.
func withRequestMetadata(r *http.Request) context.Context {
	return core.ContextWithClient(r.Context(), mw.ClientIP(r), r.UserAgent())
}
