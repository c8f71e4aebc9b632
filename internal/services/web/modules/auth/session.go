package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/platform/sessioncookie"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/sirupsen/logrus"
)

// SessionReader loads a live session by id.
type SessionReader interface {
	Session(ctx context.Context, id string) (storage.Session, error)
}

// Sessions attaches the session user to the request context. Unknown or
// expired session cookies are cleared; store failures leave the request
// anonymous.
func Sessions(store SessionReader, policy requestmeta.SchemePolicy, logger logrus.FieldLogger) httpx.Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sessioncookie.Read(r)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			session, err := store.Session(r.Context(), id)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				sessioncookie.Clear(w, r, policy)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				logger.WithError(err).WithField("request_id", httpx.RequestIDOf(r)).Warn("load session")
				next.ServeHTTP(w, r)
				return
			}
			ctx := requestctx.WithUser(r.Context(), requestctx.User{
				ORCID:     session.User.ORCID,
				Name:      session.User.Name,
				Pseudonym: session.User.Pseudonym,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
