package writereview

import (
	"context"
	"sync"

	"github.com/prereview/prereview/internal/email"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/preprint"
	module "github.com/prereview/prereview/internal/services/web/module"
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

type fakePreprints struct {
	items map[string]preprint.Preprint
}

func (f fakePreprints) Get(_ context.Context, id preprint.ID) (preprint.Preprint, error) {
	item, ok := f.items[id.DOI]
	if !ok {
		return preprint.Preprint{}, preprint.ErrNotFound
	}
	return item, nil
}

type memoryForms struct {
	mu    sync.Mutex
	forms map[string][]byte
}

func newMemoryForms() *memoryForms {
	return &memoryForms{forms: map[string][]byte{}}
}

func formKey(kind storage.FormKind, owner orcid.ID, key string) string {
	return string(kind) + "|" + string(owner) + "|" + key
}

func (m *memoryForms) Form(_ context.Context, kind storage.FormKind, owner orcid.ID, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.forms[formKey(kind, owner, key)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return payload, nil
}

func (m *memoryForms) SaveForm(_ context.Context, kind storage.FormKind, owner orcid.ID, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[formKey(kind, owner, key)] = payload
	return nil
}

func (m *memoryForms) DeleteForm(_ context.Context, kind storage.FormKind, owner orcid.ID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.forms, formKey(kind, owner, key))
	return nil
}

type fakeDepositor struct {
	mu      sync.Mutex
	reviews []zenodo.NewPrereview
	err     error
	nextID  int
}

func (f *fakeDepositor) Publish(_ context.Context, review zenodo.NewPrereview) (zenodo.Published, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return zenodo.Published{}, f.err
	}
	f.reviews = append(f.reviews, review)
	f.nextID++
	return zenodo.Published{ID: 1000 + f.nextID, DOI: "10.5281/zenodo.100" + string(rune('0'+f.nextID))}, nil
}

type fakeInvites struct {
	mu      sync.Mutex
	invites []storage.AuthorInvite
}

func (f *fakeInvites) SaveAuthorInvite(_ context.Context, invite storage.AuthorInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, invite)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type fakeAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeAnnouncer) PostMessage(_ context.Context, channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, channel+": "+text)
	return nil
}
