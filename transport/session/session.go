package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-series/internal/pkg"
)

const (
	CookieName = "user_session"
	cookieTTL  = 24 * time.Hour
)

type ctxKey struct{}

// Middleware makes sure every request carries a session id, issuing a new
// user_session cookie when the browser has none.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With("component", "session")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			var sessionID string

			cookie, err := req.Cookie(CookieName)
			if err == nil && pkg.IsValidSessionID(cookie.Value) {
				sessionID = cookie.Value
			} else {
				sessionID = pkg.GenerateNewSessionID()
				http.SetCookie(writer, &http.Cookie{
					Name:     CookieName,
					Value:    sessionID,
					Path:     "/",
					Expires:  time.Now().Add(cookieTTL),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug("session cookie not found, new one created", "session", sessionID)
			}

			next.ServeHTTP(writer, req.WithContext(WithID(req.Context(), sessionID)))
		})
	}
}

func WithID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, sessionID)
}

func FromContext(ctx context.Context) string {
	sessionID, _ := ctx.Value(ctxKey{}).(string)
	return sessionID
}
