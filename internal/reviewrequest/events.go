// Package reviewrequest keeps the review-request read model: a projection of
// request events into per-request records with their research classification.
package reviewrequest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/preprint"
)

// Event type tags, as stored.
const (
	TypeReceived              = "ReviewRequestForAPreprintWasReceived"
	TypeAccepted              = "ReviewRequestForAPreprintWasAccepted"
	TypeImportedByPrereviewer = "ReviewRequestByAPrereviewerWasImported"
	TypeImportedFromServer    = "ReviewRequestFromAPreprintServerWasImported"
	TypeCategorized           = "ReviewRequestForAPreprintWasCategorized"
	TypeRecategorized         = "ReviewRequestForAPreprintWasRecategorized"
)

// Event is one fact about a review request.
type Event interface {
	Type() string
	RequestID() uuid.UUID
}

// Received records a request that still needs accepting.
type Received struct {
	ReviewRequestID uuid.UUID   `json:"reviewRequestId"`
	PreprintID      preprint.ID `json:"preprintId"`
	ReceivedAt      time.Time   `json:"receivedAt"`
	Requester       Requester   `json:"requester"`
}

// Accepted publishes a received request.
type Accepted struct {
	ReviewRequestID uuid.UUID `json:"reviewRequestId"`
	AcceptedAt      time.Time `json:"acceptedAt"`
}

// ImportedByPrereviewer records a request made before requests were evented.
type ImportedByPrereviewer struct {
	ReviewRequestID uuid.UUID   `json:"reviewRequestId"`
	PreprintID      preprint.ID `json:"preprintId"`
	PublishedAt     time.Time   `json:"publishedAt"`
	Requester       Requester   `json:"requester"`
}

// ImportedFromServer records a request sent by a preprint server on behalf of
// its authors.
type ImportedFromServer struct {
	ReviewRequestID uuid.UUID   `json:"reviewRequestId"`
	PreprintID      preprint.ID `json:"preprintId"`
	PublishedAt     time.Time   `json:"publishedAt"`
	Server          string      `json:"server"`
	Requester       Requester   `json:"requester"`
}

// Categorized attaches an OpenAlex classification.
type Categorized struct {
	ReviewRequestID uuid.UUID          `json:"reviewRequestId"`
	Language        string             `json:"language,omitempty"`
	Keywords        []string           `json:"keywords,omitempty"`
	Topics          []openalex.TopicID `json:"topics"`
}

// Recategorized replaces the language or topics when given. A nil Language or
// Topics keeps the previous value; an empty, non-nil Topics clears them and is
// stored as [] so replay does the same.
type Recategorized struct {
	ReviewRequestID uuid.UUID          `json:"reviewRequestId"`
	Language        *string            `json:"language,omitempty"`
	Topics          []openalex.TopicID `json:"topics"`
}

// Requester is who asked for reviews, when known.
type Requester struct {
	Name  string `json:"name,omitempty"`
	ORCID string `json:"orcid,omitempty"`
}

func (Received) Type() string              { return TypeReceived }
func (Accepted) Type() string              { return TypeAccepted }
func (ImportedByPrereviewer) Type() string { return TypeImportedByPrereviewer }
func (ImportedFromServer) Type() string    { return TypeImportedFromServer }
func (Categorized) Type() string           { return TypeCategorized }
func (Recategorized) Type() string         { return TypeRecategorized }

func (e Received) RequestID() uuid.UUID              { return e.ReviewRequestID }
func (e Accepted) RequestID() uuid.UUID              { return e.ReviewRequestID }
func (e ImportedByPrereviewer) RequestID() uuid.UUID { return e.ReviewRequestID }
func (e ImportedFromServer) RequestID() uuid.UUID    { return e.ReviewRequestID }
func (e Categorized) RequestID() uuid.UUID           { return e.ReviewRequestID }
func (e Recategorized) RequestID() uuid.UUID         { return e.ReviewRequestID }

// Encode returns the type tag and JSON payload for event.
func Encode(event Event) (string, []byte, error) {
	if event == nil {
		return "", nil, fmt.Errorf("event is required")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", event.Type(), err)
	}
	return event.Type(), payload, nil
}

// Decode rebuilds an event from its type tag and JSON payload.
func Decode(eventType string, payload []byte) (Event, error) {
	switch eventType {
	case TypeReceived:
		return decodeAs[Received](eventType, payload)
	case TypeAccepted:
		return decodeAs[Accepted](eventType, payload)
	case TypeImportedByPrereviewer:
		return decodeAs[ImportedByPrereviewer](eventType, payload)
	case TypeImportedFromServer:
		return decodeAs[ImportedFromServer](eventType, payload)
	case TypeCategorized:
		return decodeAs[Categorized](eventType, payload)
	case TypeRecategorized:
		return decodeAs[Recategorized](eventType, payload)
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func decodeAs[T Event](eventType string, payload []byte) (Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return event, nil
}
