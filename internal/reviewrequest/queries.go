package reviewrequest

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/preprint"
)

// PageSize is how many requests one listing page shows.
const PageSize = 5

// ErrPageNotFound reports a page number past the last page.
var ErrPageNotFound = errors.New("review request page not found")

// Filter narrows a search. Empty values match everything.
type Filter struct {
	Field    openalex.FieldID
	Language string
}

// Page is one page of published requests.
type Page struct {
	Number     int
	TotalPages int
	Filter     Filter
	Records    []Record
}

// Search pages through accepted requests newest first. An empty result on
// page 1 is not an error; any page past the last one is.
func Search(state State, filter Filter, page int) (Page, error) {
	if page < 1 {
		return Page{}, ErrPageNotFound
	}
	filter.Language = normalizeLanguage(filter.Language)
	var matches []Record
	for _, record := range state.Records() {
		if record.Accepted && matchesFilter(record, filter) {
			matches = append(matches, record)
		}
	}
	total := (len(matches) + PageSize - 1) / PageSize
	if total == 0 && page == 1 {
		return Page{Number: 1, Filter: filter}, nil
	}
	if page > total {
		return Page{}, ErrPageNotFound
	}
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(matches))
	return Page{Number: page, TotalPages: total, Filter: filter, Records: matches[start:end]}, nil
}

func matchesFilter(record Record, filter Filter) bool {
	if filter.Field != "" && !slices.Contains(record.Fields, filter.Field) {
		return false
	}
	if filter.Language != "" && !strings.EqualFold(record.Language, filter.Language) {
		return false
	}
	return true
}

// Recent returns up to limit accepted requests, newest first.
func Recent(state State, limit int) []Record {
	var out []Record
	for _, record := range state.Records() {
		if len(out) >= limit {
			break
		}
		if record.Accepted {
			out = append(out, record)
		}
	}
	return out
}

// ForPreprint returns accepted requests for the preprint with doi, newest first.
func ForPreprint(state State, doi string) []Record {
	var out []Record
	for _, record := range state.Records() {
		if record.Accepted && record.PreprintID.DOI == doi {
			out = append(out, record)
		}
	}
	return out
}

// Uncategorized returns accepted requests still waiting for a classification.
func Uncategorized(state State) []Record {
	var out []Record
	for _, record := range state.Records() {
		if record.Accepted && !record.Categorized {
			out = append(out, record)
		}
	}
	return out
}

// Languages returns the distinct languages of accepted requests, sorted.
func Languages(state State) []string {
	var out []string
	for _, record := range state.Records() {
		if record.Accepted && record.Language != "" {
			out = appendUnique(out, record.Language)
		}
	}
	slices.Sort(out)
	return out
}

// FeedRow is one entry of the requests-data JSON feed.
type FeedRow struct {
	Timestamp time.Time             `json:"timestamp"`
	Preprint  string                `json:"preprint"`
	Server    preprint.Server       `json:"server,omitempty"`
	Language  string                `json:"language,omitempty"`
	Domains   []openalex.DomainID   `json:"domains"`
	Fields    []openalex.FieldID    `json:"fields"`
	Subfields []openalex.SubfieldID `json:"subfields"`
}

// RequestsData lists every accepted request oldest first for the public feed.
// Rows for a DOI prefix shared by several servers carry no server; callers
// that can resolve the preprint fill it in.
func RequestsData(state State) []FeedRow {
	records := state.Records()
	slices.Reverse(records)
	rows := make([]FeedRow, 0, len(records))
	for _, record := range records {
		if !record.Accepted {
			continue
		}
		row := FeedRow{
			Timestamp: record.Published.UTC(),
			Preprint:  record.PreprintID.DOI,
			Server:    record.PreprintID.Server,
			Language:  record.Language,
			Domains:   nonNil(record.Domains),
			Fields:    nonNil(record.Fields),
			Subfields: nonNil(record.Subfields),
		}
		if record.PreprintID.Ambiguous() {
			row.Server = ""
		}
		rows = append(rows, row)
	}
	return rows
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
