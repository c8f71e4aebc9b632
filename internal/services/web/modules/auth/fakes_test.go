package auth

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/storage"
)

const josiah orcid.ID = "0000-0002-1825-0097"

func testBase() module.Base {
	logger := logging.Discard()
	return module.Base{
		Writer: response.Writer{Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type fakeOrcid struct {
	identity orcid.Identity
	err      error
}

func (fakeOrcid) AuthorizeURL(state string) string {
	return "https://orcid.example/oauth/authorize?" + url.Values{"state": {state}}.Encode()
}

func (f fakeOrcid) Exchange(_ context.Context, code string) (orcid.Identity, error) {
	if f.err != nil {
		return orcid.Identity{}, f.err
	}
	if code != "good-code" {
		return orcid.Identity{}, orcid.ErrUnavailable
	}
	return f.identity, nil
}

type fakeStore struct {
	mu       sync.Mutex
	users    map[orcid.ID]storage.User
	sessions map[string]storage.Session
	saveErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[orcid.ID]storage.User{}, sessions: map[string]storage.Session{}}
}

func (f *fakeStore) SaveUser(_ context.Context, id orcid.ID, name string) (storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return storage.User{}, f.saveErr
	}
	user := storage.User{ORCID: id, Name: name, Pseudonym: "Orange Otter"}
	f.users[id] = user
	return user, nil
}

func (f *fakeStore) CreateSession(_ context.Context, user storage.User, ttl time.Duration) (storage.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := storage.Session{ID: "session-" + string(user.ORCID), User: user, ExpiresAt: time.Now().Add(ttl)}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStore) Session(_ context.Context, id string) (storage.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "broken" {
		return storage.Session{}, errors.New("database is locked")
	}
	session, ok := f.sessions[id]
	if !ok {
		return storage.Session{}, storage.ErrNotFound
	}
	return session, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) hasSession(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sessions[id]
	return ok
}

func storageUser() storage.User {
	return storage.User{ORCID: josiah, Name: "Josiah Carberry", Pseudonym: "Orange Otter"}
}
