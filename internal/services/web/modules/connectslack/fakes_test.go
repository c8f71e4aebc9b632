package connectslack

import (
	"context"
	"sync"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/slack"
)

func testBase() module.Base {
	logger := logging.Discard()
	return module.Base{
		Writer: response.Writer{Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type fakeSlack struct {
	mu          sync.Mutex
	exchangeErr error
	profileErr  error
	orcidFields []string
}

func (f *fakeSlack) AuthorizeURL(state string) string {
	return "https://slack.test/oauth/v2/authorize?state=" + state
}

func (f *fakeSlack) Exchange(_ context.Context, code string) (slack.Connection, error) {
	if f.exchangeErr != nil {
		return slack.Connection{}, f.exchangeErr
	}
	return slack.Connection{UserID: "U" + code, AccessToken: "xoxp-" + code, Scopes: []string{"users.profile:read"}}, nil
}

func (f *fakeSlack) UserProfile(_ context.Context, _ string) (slack.Profile, error) {
	if f.profileErr != nil {
		return slack.Profile{}, f.profileErr
	}
	return slack.Profile{Name: "Josiah", Image: "https://slack.test/josiah.png"}, nil
}

func (f *fakeSlack) SetOrcidField(_ context.Context, _ string, orcidURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orcidFields = append(f.orcidFields, orcidURL)
	return nil
}

type memoryStore struct {
	mu    sync.Mutex
	users map[orcid.ID]storage.SlackUser
}

func (m *memoryStore) SlackUser(_ context.Context, owner orcid.ID) (storage.SlackUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[owner]
	if !ok {
		return storage.SlackUser{}, storage.ErrNotFound
	}
	return user, nil
}

func (m *memoryStore) SaveSlackUser(_ context.Context, owner orcid.ID, user storage.SlackUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[owner] = user
	return nil
}

func (m *memoryStore) DeleteSlackUser(_ context.Context, owner orcid.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, owner)
	return nil
}
