package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so they are
// logged and recorded with the conversion run.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithClientIP(ctx, r.RemoteAddr) // rewritten by TrustedRealIP
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
