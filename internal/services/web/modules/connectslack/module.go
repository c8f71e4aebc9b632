// Package connectslack links a signed-in user's ORCID iD to their Slack
// account on the community workspace.
package connectslack

import (
	"context"
	"net/http"
	"time"

	"github.com/prereview/prereview/internal/orcid"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/slack"
)

// SlackAPI is the Slack surface the module needs.
type SlackAPI interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (slack.Connection, error)
	UserProfile(ctx context.Context, token string) (slack.Profile, error)
	SetOrcidField(ctx context.Context, token, orcidURL string) error
}

// Store keeps Slack links.
type Store interface {
	SlackUser(ctx context.Context, owner orcid.ID) (storage.SlackUser, error)
	SaveSlackUser(ctx context.Context, owner orcid.ID, user storage.SlackUser) error
	DeleteSlackUser(ctx context.Context, owner orcid.ID) error
}

// StateSigner signs the OAuth state parameter.
type StateSigner interface {
	Sign(purpose, value string, ttl time.Duration) (string, error)
	Verify(token, purpose string) (string, error)
}

// Module serves the connect-Slack pages. Mount it as protected.
type Module struct {
	base   module.Base
	slack  SlackAPI
	store  Store
	signer StateSigner
}

// New returns a connect-Slack module.
func New(base module.Base, api SlackAPI, store Store, signer StateSigner) Module {
	return Module{base: base, slack: api, store: store, signer: signer}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "connectslack" }

// Mount wires the connect and disconnect routes.
func (m Module) Mount() (module.Mount, error) {
	h := handlers{m: m}
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.ConnectSlack, Handler: m.base.Handle(h.show)},
		{Pattern: http.MethodPost + " " + routepath.ConnectSlackStart, Handler: m.base.Handle(h.start)},
		{Pattern: http.MethodGet + " " + routepath.ConnectSlackCallback, Handler: m.base.Handle(h.callback)},
		{Pattern: http.MethodPost + " " + routepath.DisconnectSlack, Handler: m.base.Handle(h.disconnect)},
	}}, nil
}
