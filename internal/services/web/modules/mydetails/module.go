// Package mydetails shows signed-in users their details and lets them
// change them.
package mydetails

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/requestctx"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
)

// DetailsStore keeps optional personal details.
type DetailsStore interface {
	Details(ctx context.Context, owner orcid.ID) (storage.Details, error)
	SaveDetails(ctx context.Context, owner orcid.ID, details storage.Details) error
}

// ContactEmails changes and confirms contact addresses.
type ContactEmails interface {
	Current(ctx context.Context, owner orcid.ID) (storage.ContactEmail, bool, error)
	Request(ctx context.Context, user requestctx.User, address string) error
	Verify(ctx context.Context, user requestctx.User, token string) (storage.ContactEmail, error)
}

// SlackUsers finds a user's Slack link.
type SlackUsers interface {
	SlackUser(ctx context.Context, owner orcid.ID) (storage.SlackUser, error)
}

// Module serves my-details and its change pages. Mount it as protected.
type Module struct {
	base    module.Base
	details DetailsStore
	emails  ContactEmails
	slack   SlackUsers
}

// New returns a my-details module. slack may be nil when Slack is not
// configured.
func New(base module.Base, details DetailsStore, emails ContactEmails, slack SlackUsers) Module {
	return Module{base: base, details: details, emails: emails, slack: slack}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "mydetails" }

// Mount wires my-details routes.
func (m Module) Mount() (module.Mount, error) {
	h := handlers{m: m}
	routes := []module.Route{
		{Pattern: http.MethodGet + " " + routepath.MyDetails, Handler: m.base.Handle(h.show)},
		{Pattern: http.MethodGet + " " + routepath.ChangeEmail, Handler: m.base.Handle(h.changeEmail)},
		{Pattern: http.MethodPost + " " + routepath.ChangeEmail, Handler: m.base.Handle(h.submitChangeEmail)},
		{Pattern: http.MethodGet + " " + routepath.VerifyEmail, Handler: m.base.Handle(h.verifyEmail)},
	}
	for _, page := range detailPages {
		routes = append(routes,
			module.Route{Pattern: http.MethodGet + " " + page.path, Handler: m.base.Handle(h.changeDetail(page))},
			module.Route{Pattern: http.MethodPost + " " + page.path, Handler: m.base.Handle(h.submitDetail(page))},
		)
	}
	return module.Mount{Routes: routes}, nil
}
