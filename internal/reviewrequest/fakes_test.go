package reviewrequest

import (
	"context"
	"errors"
	"sync"

	"github.com/prereview/prereview/internal/openalex"
)

type fakeStore struct {
	mu     sync.Mutex
	events []Event
	topics TopicTable
	err    error
}

func newFakeStore(events ...Event) *fakeStore {
	return &fakeStore{events: events, topics: TopicTable{}}
}

func (f *fakeStore) AppendEvents(_ context.Context, events ...Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeStore) ListEvents(context.Context) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]Event(nil), f.events...), nil
}

func (f *fakeStore) LoadTopics(context.Context) (TopicTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := TopicTable{}
	for k, v := range f.topics {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveTopics(_ context.Context, topics []openalex.Topic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, topic := range topics {
		f.topics[topic.ID] = topic.Subfield
	}
	return nil
}

type fakeCategorizer struct {
	results map[string]openalex.Categorization
	calls   []string
}

func (f *fakeCategorizer) Categorize(_ context.Context, doi string) (openalex.Categorization, error) {
	f.calls = append(f.calls, doi)
	result, ok := f.results[doi]
	if !ok {
		return openalex.Categorization{}, errors.New("boom")
	}
	return result, nil
}
