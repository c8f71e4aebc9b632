package reviewrequest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/prereview/prereview/internal/openalex"
)

func TestProjectorRefresh(t *testing.T) {
	t.Parallel()

	store := newFakeStore(ImportedByPrereviewer{ReviewRequestID: requestA, PreprintID: preprintA, PublishedAt: time.Unix(10, 0)})
	projector := NewProjector(store)
	if projector.Snapshot().Len() != 0 {
		t.Fatal("expected empty snapshot before refresh")
	}
	if err := projector.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if projector.Snapshot().Len() != 1 {
		t.Fatalf("Len() = %d, want 1", projector.Snapshot().Len())
	}
}

func TestProjectorRefreshError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("disk gone")
	if err := NewProjector(store).Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestProjectorPublish(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	store := newFakeStore()
	projector := NewProjector(store, WithClock(func() time.Time { return now }))

	id, err := projector.Publish(context.Background(), preprintA, Requester{Name: "Jane"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	record, ok := projector.Snapshot().Get(id)
	if !ok || !record.Accepted || !record.Published.Equal(now) || record.Requester.Name != "Jane" {
		t.Fatalf("record = %+v, %v", record, ok)
	}
	if len(store.events) != 2 || store.events[0].Type() != TypeReceived || store.events[1].Type() != TypeAccepted {
		t.Fatalf("stored events = %v", store.events)
	}
}

func TestProjectorCategorizePending(t *testing.T) {
	t.Parallel()

	store := newFakeStore(
		ImportedByPrereviewer{ReviewRequestID: requestA, PreprintID: preprintA, PublishedAt: time.Unix(10, 0)},
		ImportedByPrereviewer{ReviewRequestID: requestB, PreprintID: preprintB, PublishedAt: time.Unix(20, 0)},
	)
	categorizer := &fakeCategorizer{results: map[string]openalex.Categorization{
		preprintA.DOI: {Language: "en", Topics: []openalex.Topic{{ID: "T50000", Subfield: "2805"}}},
	}}
	projector := NewProjector(store, WithCategorizer(categorizer))
	if err := projector.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	n, err := projector.CategorizePending(context.Background())
	if err != nil {
		t.Fatalf("CategorizePending() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("CategorizePending() = %d, want 1", n)
	}
	if len(categorizer.calls) != 2 {
		t.Fatalf("categorizer calls = %v, want both requests", categorizer.calls)
	}
	record, _ := projector.Snapshot().Get(requestA)
	if record.Language != "en" || len(record.Fields) != 1 || record.Fields[0] != "28" {
		t.Fatalf("record = %+v", record)
	}
	if got := Uncategorized(projector.Snapshot()); len(got) != 1 || got[0].ID != requestB {
		t.Fatalf("Uncategorized() = %+v", got)
	}
}

func TestProjectorCategorizeWithoutCategorizer(t *testing.T) {
	t.Parallel()

	if _, err := NewProjector(newFakeStore()).CategorizePending(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestProjectorStartStop(t *testing.T) {
	t.Parallel()

	projector := NewProjector(newFakeStore())
	if err := projector.Start(context.Background(), "not a schedule"); err == nil {
		t.Fatal("expected schedule error")
	}
	if err := projector.Start(context.Background(), "@every 1h"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	projector.Stop()
	projector.Stop()
}

func TestDecodeUnknownType(t *testing.T) {
	t.Parallel()

	if _, err := Decode("SomethingElse", []byte(`{}`)); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := Encode(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestRecategorizedTopicsSurviveStorage(t *testing.T) {
	t.Parallel()

	base := Fold(taxonomy, []Event{
		ImportedByPrereviewer{ReviewRequestID: requestA, PreprintID: preprintA, PublishedAt: time.Unix(100, 0)},
		Categorized{ReviewRequestID: requestA, Language: "en", Topics: []openalex.TopicID{"T10001"}},
	})
	tests := map[string]struct {
		topics []openalex.TopicID
		want   []openalex.FieldID
	}{
		"cleared": {topics: []openalex.TopicID{}, want: nil},
		"kept":    {topics: nil, want: []openalex.FieldID{"13"}},
	}
	for name, tc := range tests {
		event := Recategorized{ReviewRequestID: requestA, Topics: tc.topics}
		eventType, payload, err := Encode(event)
		if err != nil {
			t.Fatalf("%s: Encode() error = %v", name, err)
		}
		decoded, err := Decode(eventType, payload)
		if err != nil {
			t.Fatalf("%s: Decode() error = %v", name, err)
		}
		stored, _ := Apply(base, decoded).Get(requestA)
		applied, _ := Apply(base, event).Get(requestA)
		if !slices.Equal(stored.Fields, tc.want) || !slices.Equal(applied.Fields, tc.want) {
			t.Fatalf("%s: fields stored = %v, applied = %v, want %v", name, stored.Fields, applied.Fields, tc.want)
		}
	}
}
