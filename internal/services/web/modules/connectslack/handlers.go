package connectslack

import (
	"errors"
	"net/http"
	"time"

	"github.com/prereview/prereview/internal/platform/requestctx"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/flash"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/services/web/templates"
)

const (
	statePurpose = "connect-slack"
	stateTTL     = 10 * time.Minute
)

type handlers struct {
	m Module
}

func currentUser(r *http.Request) (requestctx.User, error) {
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return requestctx.User{}, apperrors.E(apperrors.KindNoSession, "sign in required")
	}
	return user, nil
}

func (h handlers) show(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	view := templates.FormView{
		HeadingKey: "connect_slack.heading",
		Action:     routepath.ConnectSlackStart,
		BackURL:    routepath.MyDetails,
		SubmitKey:  "connect_slack.start",
		Fields:     []templates.Field{templates.Paragraph{Key: "connect_slack.explain"}},
	}
	linked, err := h.m.store.SlackUser(ctx, user.ORCID)
	switch {
	case err == nil:
		view.HeadingKey = "connect_slack.connected.heading"
		view.Action = routepath.DisconnectSlack
		view.SubmitKey = "connect_slack.disconnect"
		view.Fields = []templates.Field{templates.Paragraph{Key: "connect_slack.connected.explain", Args: []any{linked.Name}}}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}
	return response.Page{
		Title: templates.T(ctx, view.HeadingKey),
		Main:  templates.Form(view),
		Nav:   templates.NavMyDetails,
	}, nil
}

func (h handlers) start(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	state, err := h.m.signer.Sign(statePurpose, string(user.ORCID), stateTTL)
	if err != nil {
		return nil, err
	}
	return response.Redirect{Location: h.m.slack.AuthorizeURL(state), Status: http.StatusFound}, nil
}

func (h handlers) callback(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	query := r.URL.Query()
	owner, err := h.m.signer.Verify(query.Get("state"), statePurpose)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidToken, err)
	}
	if owner != string(user.ORCID) {
		return nil, apperrors.E(apperrors.KindWrongUser, "slack state belongs to another user")
	}
	logger := h.m.base.Log().WithField("request_id", httpx.RequestIDOf(r))
	if denied := query.Get("error"); denied != "" {
		logger.WithField("error", denied).Info("slack connection not authorized")
		return response.FlashMessage{Location: routepath.ConnectSlack, Notice: flash.Failure(flash.SlackDenied)}, nil
	}

	ctx := r.Context()
	unavailable := response.FlashMessage{Location: routepath.ConnectSlack, Notice: flash.Failure(flash.SlackUnavailable)}
	conn, err := h.m.slack.Exchange(ctx, query.Get("code"))
	if err != nil {
		logger.WithError(err).Warn("slack exchange failed")
		return unavailable, nil
	}
	profile, err := h.m.slack.UserProfile(ctx, conn.AccessToken)
	if err != nil {
		logger.WithError(err).Warn("slack profile lookup failed")
		return unavailable, nil
	}
	if err := h.m.slack.SetOrcidField(ctx, conn.AccessToken, user.ORCID.URL()); err != nil {
		logger.WithError(err).Warn("slack orcid field update failed")
		return unavailable, nil
	}
	if err := h.m.store.SaveSlackUser(ctx, user.ORCID, storage.SlackUser{
		UserID:      conn.UserID,
		AccessToken: conn.AccessToken,
		Name:        profile.Name,
		Image:       profile.Image,
		Scopes:      conn.Scopes,
	}); err != nil {
		return nil, err
	}
	logger.WithField("slack_user", conn.UserID).Info("slack connected")
	return response.FlashMessage{Location: routepath.ConnectSlack, Notice: flash.Success(flash.SlackConnected)}, nil
}

func (h handlers) disconnect(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	if err := h.m.store.DeleteSlackUser(r.Context(), user.ORCID); err != nil {
		return nil, err
	}
	return response.FlashMessage{Location: routepath.ConnectSlack, Notice: flash.Success(flash.SlackDisconnected)}, nil
}
