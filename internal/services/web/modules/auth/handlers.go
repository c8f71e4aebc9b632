package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/platform/flash"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/sessioncookie"
	"github.com/prereview/prereview/internal/services/web/routepath"
)

const (
	loginStatePurpose = "orcid-login"
	loginStateTTL     = 10 * time.Minute
)

type handlers struct {
	m Module
}

func newHandlers(m Module) handlers {
	return handlers{m: m}
}

func returnTo(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !requestmeta.IsSafeRedirect(raw) || strings.HasPrefix(raw, routepath.LogIn) {
		return routepath.Home
	}
	return raw
}

func (h handlers) logIn(r *http.Request) (response.Response, error) {
	target := returnTo(r.URL.Query().Get(routepath.ReturnParam))
	if _, ok := requestctx.UserFrom(httpx.RequestContext(r)); ok {
		return response.Redirect{Location: target}, nil
	}
	state, err := h.m.signer.Sign(loginStatePurpose, target, loginStateTTL)
	if err != nil {
		return nil, err
	}
	return response.Redirect{Location: h.m.orcid.AuthorizeURL(state), Status: http.StatusFound}, nil
}

func (h handlers) orcidCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	target, err := h.m.signer.Verify(query.Get("state"), loginStatePurpose)
	if err != nil {
		h.m.base.Writer.Write(w, r, response.FlashMessage{Location: routepath.Home, Notice: flash.Failure(flash.LogInFailed)})
		return
	}
	target = returnTo(target)
	logger := h.m.base.Log().WithField("request_id", httpx.RequestIDOf(r))

	if denied := query.Get("error"); denied != "" {
		logger.WithField("error", denied).Info("orcid log-in not completed")
		h.m.base.Writer.Write(w, r, response.FlashMessage{Location: target, Notice: flash.Failure(flash.LogInFailed)})
		return
	}

	ctx := r.Context()
	identity, err := h.m.orcid.Exchange(ctx, query.Get("code"))
	if err != nil {
		logger.WithError(err).Warn("orcid exchange failed")
		h.m.base.Writer.Write(w, r, response.FlashMessage{Location: target, Notice: flash.Failure(flash.LogInFailed)})
		return
	}
	user, err := h.m.store.SaveUser(ctx, identity.ORCID, identity.Name)
	if err != nil {
		logger.WithError(err).Error("save user")
		h.m.base.Writer.Write(w, r, response.FlashMessage{Location: target, Notice: flash.Failure(flash.LogInFailed)})
		return
	}
	session, err := h.m.store.CreateSession(ctx, user, h.m.sessionTTL)
	if err != nil {
		logger.WithError(err).Error("create session")
		h.m.base.Writer.Write(w, r, response.FlashMessage{Location: target, Notice: flash.Failure(flash.LogInFailed)})
		return
	}
	sessioncookie.Write(w, r, session.ID, h.m.sessionTTL, h.m.base.Policy)
	logger.WithField("orcid", user.ORCID).Info("logged in")
	h.m.base.Writer.Write(w, r, response.FlashMessage{Location: target, Notice: flash.Success(flash.LoggedIn)})
}

func (h handlers) logOut(w http.ResponseWriter, r *http.Request) {
	if id, ok := sessioncookie.Read(r); ok {
		if err := h.m.store.DeleteSession(r.Context(), id); err != nil {
			h.m.base.Log().WithError(err).WithField("request_id", httpx.RequestIDOf(r)).Warn("delete session")
		}
	}
	sessioncookie.Clear(w, r, h.m.base.Policy)
	h.m.base.Writer.Write(w, r, response.FlashMessage{Location: routepath.Home, Notice: flash.Success(flash.LoggedOut)})
}
