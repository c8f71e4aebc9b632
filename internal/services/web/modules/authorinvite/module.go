// Package authorinvite lets a co-author named on a published PREreview
// accept or decline being listed as an author.
package authorinvite

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/requestctx"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/zenodo"
)

// InviteStore reads and updates author invites.
type InviteStore interface {
	AuthorInvite(ctx context.Context, inviteID uuid.UUID) (storage.AuthorInvite, error)
	SaveAuthorInvite(ctx context.Context, invite storage.AuthorInvite) error
}

// ContactEmails looks up and confirms the invitee's contact address.
type ContactEmails interface {
	Current(ctx context.Context, owner orcid.ID) (storage.ContactEmail, bool, error)
	Request(ctx context.Context, user requestctx.User, address string) error
	Resend(ctx context.Context, user requestctx.User) error
}

// AuthorAdder lists a new author on a published record.
type AuthorAdder interface {
	AddAuthor(ctx context.Context, recordID int, author zenodo.Author) error
}

// Module provides the author-invite flow.
type Module struct {
	base    module.Base
	invites InviteStore
	emails  ContactEmails
	records AuthorAdder
}

// New returns an author-invite module.
func New(base module.Base, invites InviteStore, emails ContactEmails, records AuthorAdder) Module {
	return Module{base: base, invites: invites, emails: emails, records: records}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "authorinvite" }

// Mount wires the invite pages.
func (m Module) Mount() (module.Mount, error) {
	h := handlers{m: m}
	step := func(name string) string {
		if name == "" {
			return routepath.AuthorInvitePrefix + "{inviteID}"
		}
		return routepath.AuthorInvitePrefix + "{inviteID}/" + name
	}
	get := func(path string, fn response.HandlerFunc) module.Route {
		return module.Route{Pattern: http.MethodGet + " " + path, Handler: m.base.Handle(fn)}
	}
	post := func(path string, fn response.HandlerFunc) module.Route {
		return module.Route{Pattern: http.MethodPost + " " + path, Handler: m.base.Handle(fn)}
	}
	decline := routepath.AuthorInviteDeclinePrefix + "{inviteID}"
	return module.Mount{Routes: []module.Route{
		get(step(""), h.start),
		post(step(""), h.accept),
		get(step(stepChooseName), h.chooseName),
		post(step(stepChooseName), h.submitChooseName),
		get(step(stepEnterEmail), h.enterEmail),
		post(step(stepEnterEmail), h.submitEnterEmail),
		get(step(stepNeedToVerify), h.needToVerify),
		post(step(stepNeedToVerify), h.resend),
		get(step(stepCheck), h.check),
		post(step(stepCheck), h.submitCheck),
		get(step(stepPublished), h.published),
		get(decline, h.declinePage),
		post(decline, h.decline),
	}}, nil
}
