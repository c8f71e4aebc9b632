package authorinvite

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/platform/requestctx"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/contactemail"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/zenodo"
)

func testBase() module.Base {
	logger := logging.Discard()
	return module.Base{
		Writer: response.Writer{Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type fakeInvites struct {
	mu      sync.Mutex
	invites map[uuid.UUID]storage.AuthorInvite
}

func (f *fakeInvites) AuthorInvite(_ context.Context, inviteID uuid.UUID) (storage.AuthorInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	invite, ok := f.invites[inviteID]
	if !ok {
		return storage.AuthorInvite{}, storage.ErrNotFound
	}
	return invite, nil
}

func (f *fakeInvites) SaveAuthorInvite(_ context.Context, invite storage.AuthorInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites[invite.ID] = invite
	return nil
}

func (f *fakeInvites) get(id uuid.UUID) storage.AuthorInvite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invites[id]
}

type fakeEmails struct {
	mu          sync.Mutex
	emails      map[orcid.ID]storage.ContactEmail
	requested   []string
	resent      int
	rateLimited bool
}

func (f *fakeEmails) Current(_ context.Context, owner orcid.ID) (storage.ContactEmail, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.emails[owner]
	return current, ok, nil
}

func (f *fakeEmails) Request(_ context.Context, user requestctx.User, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rateLimited {
		return contactemail.ErrRateLimited
	}
	f.requested = append(f.requested, address)
	f.emails[user.ORCID] = storage.ContactEmail{Address: address, Token: "nonce"}
	return nil
}

func (f *fakeEmails) Resend(_ context.Context, _ requestctx.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rateLimited {
		return contactemail.ErrRateLimited
	}
	f.resent++
	return nil
}

func (f *fakeEmails) verify(owner orcid.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.emails[owner]
	current.Verified = true
	current.Token = ""
	f.emails[owner] = current
}

type fakeRecords struct {
	mu    sync.Mutex
	added map[int][]zenodo.Author
	err   error
}

func (f *fakeRecords) AddAuthor(_ context.Context, recordID int, author zenodo.Author) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.added == nil {
		f.added = map[int][]zenodo.Author{}
	}
	f.added[recordID] = append(f.added[recordID], author)
	return nil
}
