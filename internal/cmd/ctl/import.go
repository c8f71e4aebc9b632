package ctl

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/tidwall/gjson"
)

// importNamespace derives stable request ids so re-imports are no-ops.
var importNamespace = uuid.MustParse("5f0c3a4e-9a51-4c3b-8d2e-6f1a7b0c9d21")

// ReadImport parses JSON lines into import events. Blank lines are skipped;
// any malformed line fails the whole import.
func ReadImport(in io.Reader) ([]reviewrequest.Event, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var events []reviewrequest.Event
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		event, err := parseImportLine(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	return events, nil
}

func parseImportLine(raw string) (reviewrequest.Event, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON")
	}
	doc := gjson.Parse(raw)
	preprintID, err := preprint.ParseIdentifier(doc.Get("preprint").String())
	if err != nil {
		return nil, fmt.Errorf("preprint: %w", err)
	}
	publishedAt, err := time.Parse(time.RFC3339, doc.Get("publishedAt").String())
	if err != nil {
		return nil, fmt.Errorf("publishedAt: %w", err)
	}
	publishedAt = publishedAt.UTC()
	requester := reviewrequest.Requester{
		Name:  doc.Get("requester.name").String(),
		ORCID: doc.Get("requester.orcid").String(),
	}
	requestID := uuid.NewSHA1(importNamespace, []byte(preprintID.DOI+"\n"+publishedAt.Format(time.RFC3339)))
	if server := strings.TrimSpace(doc.Get("server").String()); server != "" {
		return reviewrequest.ImportedFromServer{
			ReviewRequestID: requestID,
			PreprintID:      preprintID,
			PublishedAt:     publishedAt,
			Server:          server,
			Requester:       requester,
		}, nil
	}
	return reviewrequest.ImportedByPrereviewer{
		ReviewRequestID: requestID,
		PreprintID:      preprintID,
		PublishedAt:     publishedAt,
		Requester:       requester,
	}, nil
}

// NewEvents drops events for requests already in state or repeated earlier
// in events.
func NewEvents(state reviewrequest.State, events []reviewrequest.Event) []reviewrequest.Event {
	seen := make(map[uuid.UUID]bool, len(events))
	out := make([]reviewrequest.Event, 0, len(events))
	for _, event := range events {
		id := event.RequestID()
		if _, ok := state.Get(id); ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, event)
	}
	return out
}
