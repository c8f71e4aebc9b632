package requestreview

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	module "github.com/prereview/prereview/internal/services/web/module"
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

type publishCall struct {
	preprint  preprint.ID
	requester reviewrequest.Requester
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, id preprint.ID, requester reviewrequest.Requester) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.calls = append(f.calls, publishCall{preprint: id, requester: requester})
	return uuid.New(), nil
}

type fakeAnnouncer struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeAnnouncer) PostMessage(_ context.Context, channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, channel+": "+text)
	return nil
}

var errSlackDown = errors.New("slack is down")
