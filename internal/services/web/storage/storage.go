// Package storage defines the records the web service keeps about its users
// and their in-progress work.
package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/orcid"
)

// ErrNotFound reports a missing or expired record.
var ErrNotFound = errors.New("record not found")

// User is someone who has logged in with ORCID.
type User struct {
	ORCID     orcid.ID
	Name      string
	Pseudonym string
}

// Session binds a browser cookie to a user.
type Session struct {
	ID        string
	User      User
	ExpiresAt time.Time
}

// ContactEmail is a user's email address and whether they have confirmed it.
type ContactEmail struct {
	Address  string
	Verified bool
	// Token is the pending verification token; empty once verified.
	Token string
}

// InviteStatus tracks an author invite through its life.
type InviteStatus string

const (
	InviteOpen      InviteStatus = "open"
	InviteAssigned  InviteStatus = "assigned"
	InviteCompleted InviteStatus = "completed"
	InviteDeclined  InviteStatus = "declined"
)

// AuthorInvite offers a co-author credit on a published PREreview.
type AuthorInvite struct {
	ID            uuid.UUID
	ReviewID      int
	PreprintTitle string
	InviterName   string
	Email         string
	Status        InviteStatus
	// AssignedTo is set once someone has accepted the invite.
	AssignedTo orcid.ID
	// Persona is "public" or "pseudonym" once chosen.
	Persona   string
	CreatedAt time.Time
}

// Visibility controls who can see a personal detail.
type Visibility string

const (
	VisibilityRestricted Visibility = "restricted"
	VisibilityPublic     Visibility = "public"
)

// Detail is one optional personal detail.
type Detail struct {
	Value      string
	Visibility Visibility
}

// IsPublic reports whether the detail should appear on the public profile.
func (d Detail) IsPublic() bool {
	return d.Value != "" && d.Visibility == VisibilityPublic
}

// Career stages a user can choose from.
const (
	CareerStageEarly = "early"
	CareerStageMid   = "mid"
	CareerStageLate  = "late"
)

// CareerStages lists the career stages in display order.
var CareerStages = []string{CareerStageEarly, CareerStageMid, CareerStageLate}

// Details are the optional personal details shown on my-details.
type Details struct {
	// OpenForRequests is "yes", "no" or empty when not answered.
	OpenForRequests   Detail
	CareerStage       Detail
	ResearchInterests Detail
	Location          Detail
	Languages         Detail
}

// SlackUser links an ORCID user to a Slack member.
type SlackUser struct {
	UserID      string
	AccessToken string
	Name        string
	Image       string
	Scopes      []string
}

// FormKind names a multi-step flow whose answers are saved between steps.
type FormKind string

const (
	FormWriteReview   FormKind = "write-review"
	FormRequestReview FormKind = "request-review"
	// FormReviewPublished keeps the last published review for its
	// confirmation page.
	FormReviewPublished FormKind = "review-published"
)
