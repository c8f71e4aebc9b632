package reviewrequest

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/preprint"
)

// Taxonomy maps topics to the subfield that contains them.
type Taxonomy interface {
	SubfieldOf(topic openalex.TopicID) (openalex.SubfieldID, bool)
}

// TopicTable is an in-memory Taxonomy.
type TopicTable map[openalex.TopicID]openalex.SubfieldID

// SubfieldOf implements Taxonomy.
func (t TopicTable) SubfieldOf(topic openalex.TopicID) (openalex.SubfieldID, bool) {
	subfield, ok := t[topic]
	return subfield, ok
}

// Record is the read-model entry for one review request.
type Record struct {
	ID          uuid.UUID
	PreprintID  preprint.ID
	Published   time.Time
	Accepted    bool
	Categorized bool
	Language    string
	Topics      []openalex.TopicID
	Subfields   []openalex.SubfieldID
	Fields      []openalex.FieldID
	Domains     []openalex.DomainID
	Requester   Requester
}

// State is an immutable snapshot of every known review request.
type State struct {
	records  map[uuid.UUID]Record
	taxonomy Taxonomy
}

// NewState returns an empty State that classifies topics with taxonomy.
func NewState(taxonomy Taxonomy) State {
	if taxonomy == nil {
		taxonomy = TopicTable{}
	}
	return State{records: map[uuid.UUID]Record{}, taxonomy: taxonomy}
}

// Get returns the record for id.
func (s State) Get(id uuid.UUID) (Record, bool) {
	record, ok := s.records[id]
	return record, ok
}

// Len is the number of records.
func (s State) Len() int {
	return len(s.records)
}

// Records returns every record, newest published first, ties by id.
func (s State) Records() []Record {
	records := slices.Collect(maps.Values(s.records))
	slices.SortFunc(records, newestFirst)
	return records
}

func newestFirst(a, b Record) int {
	if c := b.Published.Compare(a.Published); c != 0 {
		return c
	}
	return slices.Compare(a.ID[:], b.ID[:])
}

// Apply returns the state that follows event. state is left untouched.
func Apply(state State, event Event) State {
	next := State{records: maps.Clone(state.records), taxonomy: state.taxonomy}
	if next.records == nil {
		next.records = map[uuid.UUID]Record{}
	}
	if next.taxonomy == nil {
		next.taxonomy = TopicTable{}
	}
	apply(next, event)
	return next
}

// Fold applies events in order to an empty state.
func Fold(taxonomy Taxonomy, events []Event) State {
	state := NewState(taxonomy)
	for _, event := range events {
		apply(state, event)
	}
	return state
}

// apply mutates state.records in place; callers own the map.
func apply(state State, event Event) {
	switch e := event.(type) {
	case Received:
		state.records[e.ReviewRequestID] = Record{
			ID:         e.ReviewRequestID,
			PreprintID: e.PreprintID,
			Requester:  e.Requester,
		}
	case Accepted:
		record, ok := state.records[e.ReviewRequestID]
		if !ok {
			return
		}
		record.Accepted = true
		record.Published = e.AcceptedAt
		state.records[e.ReviewRequestID] = record
	case ImportedByPrereviewer:
		state.records[e.ReviewRequestID] = Record{
			ID:         e.ReviewRequestID,
			PreprintID: e.PreprintID,
			Published:  e.PublishedAt,
			Accepted:   true,
			Requester:  e.Requester,
		}
	case ImportedFromServer:
		state.records[e.ReviewRequestID] = Record{
			ID:         e.ReviewRequestID,
			PreprintID: e.PreprintID.Disambiguate(preprint.Server(strings.ToLower(e.Server))),
			Published:  e.PublishedAt,
			Accepted:   true,
			Requester:  e.Requester,
		}
	case Categorized:
		record, ok := state.records[e.ReviewRequestID]
		if !ok {
			return
		}
		record.Categorized = true
		record.Language = normalizeLanguage(e.Language)
		state.records[e.ReviewRequestID] = classify(record, e.Topics, state.taxonomy)
	case Recategorized:
		record, ok := state.records[e.ReviewRequestID]
		if !ok {
			return
		}
		record.Categorized = true
		if e.Language != nil {
			record.Language = normalizeLanguage(*e.Language)
		}
		if e.Topics != nil {
			record = classify(record, e.Topics, state.taxonomy)
		}
		state.records[e.ReviewRequestID] = record
	}
}

// normalizeLanguage keeps stored language codes in the form filters use.
func normalizeLanguage(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// classify sets topics and the subfields, fields and domains they imply,
// each deduplicated in first-seen order.
func classify(record Record, topics []openalex.TopicID, taxonomy Taxonomy) Record {
	record.Topics = unique(topics)
	record.Subfields = nil
	record.Fields = nil
	record.Domains = nil
	for _, topic := range record.Topics {
		subfield, ok := taxonomy.SubfieldOf(topic)
		if !ok {
			continue
		}
		record.Subfields = appendUnique(record.Subfields, subfield)
		field, ok := openalex.FieldOf(subfield)
		if !ok {
			continue
		}
		record.Fields = appendUnique(record.Fields, field)
		if domain, ok := openalex.DomainOf(field); ok {
			record.Domains = appendUnique(record.Domains, domain)
		}
	}
	return record
}

func unique[T comparable](values []T) []T {
	out := make([]T, 0, len(values))
	for _, value := range values {
		out = appendUnique(out, value)
	}
	return out
}

func appendUnique[T comparable](values []T, value T) []T {
	if slices.Contains(values, value) {
		return values
	}
	return append(values, value)
}
