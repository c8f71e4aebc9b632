package mydetails

import (
	"context"
	"sync"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/platform/requestctx"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/contactemail"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/storage"
)

func testBase() module.Base {
	logger := logging.Discard()
	return module.Base{
		Writer: response.Writer{Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type memoryDetails struct {
	mu      sync.Mutex
	details map[orcid.ID]storage.Details
}

func (m *memoryDetails) Details(_ context.Context, owner orcid.ID) (storage.Details, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.details[owner], nil
}

func (m *memoryDetails) SaveDetails(_ context.Context, owner orcid.ID, details storage.Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[owner] = details
	return nil
}

type fakeEmails struct {
	mu          sync.Mutex
	emails      map[orcid.ID]storage.ContactEmail
	requested   []string
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
	current := f.emails[user.ORCID]
	if current.Verified && current.Address == address {
		return nil
	}
	f.requested = append(f.requested, address)
	f.emails[user.ORCID] = storage.ContactEmail{Address: address, Token: "nonce"}
	return nil
}

// Verify accepts the token "good"; "verified" and anything else fail the
// way a real verifier would.
func (f *fakeEmails) Verify(_ context.Context, user requestctx.User, token string) (storage.ContactEmail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch token {
	case "good":
		current := f.emails[user.ORCID]
		current.Verified = true
		current.Token = ""
		f.emails[user.ORCID] = current
		return current, nil
	case "verified":
		return storage.ContactEmail{}, apperrors.E(apperrors.KindAlreadyVerified, "verified")
	default:
		return storage.ContactEmail{}, apperrors.E(apperrors.KindInvalidToken, "bad token")
	}
}

type fakeSlack struct {
	users map[orcid.ID]storage.SlackUser
}

func (f fakeSlack) SlackUser(_ context.Context, owner orcid.ID) (storage.SlackUser, error) {
	user, ok := f.users[owner]
	if !ok {
		return storage.SlackUser{}, storage.ErrNotFound
	}
	return user, nil
}
