// Package auth logs users in with ORCID and out again, and resolves the
// session user for every request.
package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/prereview/prereview/internal/orcid"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
)

// OrcidLogin is the ORCID OAuth surface the module needs.
type OrcidLogin interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (orcid.Identity, error)
}

// Store keeps users and their sessions.
type Store interface {
	SaveUser(ctx context.Context, id orcid.ID, name string) (storage.User, error)
	CreateSession(ctx context.Context, user storage.User, ttl time.Duration) (storage.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// StateSigner signs the OAuth state parameter.
type StateSigner interface {
	Sign(purpose, value string, ttl time.Duration) (string, error)
	Verify(token, purpose string) (string, error)
}

// Module provides log-in and log-out routes.
type Module struct {
	base       module.Base
	orcid      OrcidLogin
	store      Store
	signer     StateSigner
	sessionTTL time.Duration
}

// New returns an auth module.
func New(base module.Base, login OrcidLogin, store Store, signer StateSigner, sessionTTL time.Duration) Module {
	return Module{base: base, orcid: login, store: store, signer: signer, sessionTTL: sessionTTL}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "auth" }

// Mount wires the auth route handlers.
func (m Module) Mount() (module.Mount, error) {
	h := newHandlers(m)
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.LogIn, Handler: m.base.Handle(h.logIn)},
		{Pattern: http.MethodGet + " " + routepath.OrcidCallback, Handler: http.HandlerFunc(h.orcidCallback)},
		{Pattern: http.MethodGet + " " + routepath.LogOut, Handler: http.HandlerFunc(h.logOut)},
	}}, nil
}
