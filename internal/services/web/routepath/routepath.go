// Package routepath centralizes PREreview URL paths and builders.
package routepath

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/preprint"
)

const (
	Home                      = "/"
	Health                    = "/health"
	Metrics                   = "/metrics"
	Static                    = "/static/"
	LogIn                     = "/log-in"
	OrcidCallback             = "/orcid"
	LogOut                    = "/log-out"
	Reviews                   = "/reviews"
	Clubs                     = "/clubs"
	ReviewRequests            = "/review-requests"
	RequestsData              = "/requests-data"
	ReviewsData               = "/reviews-data"
	WriteReview               = "/write-a-prereview"
	RequestReview             = "/request-a-prereview"
	MyDetails                 = "/my-details"
	ChangeEmail               = "/my-details/change-email-address"
	VerifyEmail               = "/my-details/verify-email-address"
	ChangeOpenForRequests     = "/my-details/change-open-for-requests"
	ChangeCareerStage         = "/my-details/change-career-stage"
	ChangeResearchInterests   = "/my-details/change-research-interests"
	ChangeLocation            = "/my-details/change-location"
	ChangeLanguages           = "/my-details/change-languages"
	ConnectSlack              = "/connect-slack"
	ConnectSlackStart         = "/connect-slack/start"
	ConnectSlackCallback      = "/connect-slack/callback"
	DisconnectSlack           = "/disconnect-slack"
	AuthorInvitePrefix        = "/author-invite/"
	AuthorInviteDeclinePrefix = "/author-invite-decline/"
	PreprintPrefix            = "/preprints/"
	ProfilePrefix             = "/profiles/"
)

// ReturnParam carries the post-login destination.
const ReturnParam = "return"

// LogInReturning builds the log-in URL that comes back to location.
func LogInReturning(location string) string {
	if location == "" || location == Home {
		return LogIn
	}
	return LogIn + "?" + url.Values{ReturnParam: {location}}.Encode()
}

// Review returns the page of a published PREreview.
func Review(id int) string {
	return Reviews + "/" + strconv.Itoa(id)
}

// Club returns the page of a club.
func Club(id string) string {
	return Clubs + "/" + url.PathEscape(id)
}

// Profile returns the public profile of an ORCID user.
func Profile(id orcid.ID) string {
	return ProfilePrefix + id.String()
}

// PseudonymProfile returns the public profile of a pseudonym.
func PseudonymProfile(pseudonym string) string {
	return ProfilePrefix + url.PathEscape(pseudonymSlug(pseudonym))
}

// Preprint returns the page listing PREreviews of a preprint.
func Preprint(id preprint.ID) string {
	return PreprintPrefix + id.RouteSegment()
}

// WriteReviewStep returns a step of the write-a-PREreview flow.
func WriteReviewStep(id preprint.ID, step string) string {
	base := Preprint(id) + WriteReview
	if step == "" {
		return base
	}
	return base + "/" + step
}

// RequestReviewStep returns a step of the request-a-PREreview flow.
func RequestReviewStep(id preprint.ID, step string) string {
	base := Preprint(id) + RequestReview
	if step == "" {
		return base
	}
	return base + "/" + step
}

// AuthorInvite returns a step of the author-invite flow.
func AuthorInvite(id uuid.UUID, step string) string {
	base := AuthorInvitePrefix + id.String()
	if step == "" {
		return base
	}
	return base + "/" + step
}

// AuthorInviteDecline returns the decline page of an invite.
func AuthorInviteDecline(id uuid.UUID) string {
	return AuthorInviteDeclinePrefix + id.String()
}

// VerifyEmailWithToken returns the link mailed to confirm a contact email.
func VerifyEmailWithToken(token string) string {
	return VerifyEmail + "?" + url.Values{"token": {token}}.Encode()
}

// WithPage adds the page number to a listing URL, keeping the query.
func WithPage(path string, query url.Values, page int) string {
	values := url.Values{}
	for key, vals := range query {
		if key == "page" {
			continue
		}
		values[key] = append([]string(nil), vals...)
	}
	if page > 1 {
		values.Set("page", strconv.Itoa(page))
	}
	if encoded := values.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func pseudonymSlug(pseudonym string) string {
	out := make([]rune, 0, len(pseudonym))
	for _, r := range pseudonym {
		if r == ' ' {
			r = '-'
		}
		out = append(out, r)
	}
	return string(out)
}

// PseudonymFromSlug reverses PseudonymProfile's path encoding.
func PseudonymFromSlug(slug string) string {
	out := make([]rune, 0, len(slug))
	for _, r := range slug {
		if r == '-' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
