package profiles

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/services/web/platform/cards"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/prereview/prereview/internal/zenodo"
)

func (m Module) profile(r *http.Request) (response.Response, error) {
	raw := strings.TrimSpace(r.PathValue("profileID"))
	if id, err := orcid.ParseID(raw); err == nil {
		if id.String() != raw {
			return response.Redirect{Location: routepath.Profile(id), Status: http.StatusMovedPermanently}, nil
		}
		return m.orcidProfile(r, id)
	}
	return m.pseudonymProfile(r, routepath.PseudonymFromSlug(raw))
}

func (m Module) orcidProfile(r *http.Request, id orcid.ID) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	details, err := m.people.PersonalDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := m.prereviews.RecordsByORCID(ctx, id.String())
	if err != nil {
		return nil, err
	}

	name := details.DisplayName()
	if name == "" {
		name = id.String()
	}
	view := templates.ProfileView{
		Name:     name,
		ORCID:    id.String(),
		ORCIDURL: id.URL(),
	}
	for _, c := range club.LeadOf(id) {
		view.Clubs = append(view.Clubs, templates.PersonLink{Name: c.Name, URL: routepath.Club(string(c.ID))})
	}

	shared, err := m.store.Details(ctx, id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if shared.CareerStage.IsPublic() {
		view.CareerStage = templates.T(ctx, "career_stage."+shared.CareerStage.Value)
	}
	if shared.ResearchInterests.IsPublic() {
		view.ResearchInterests = shared.ResearchInterests.Value
	}
	if shared.Location.IsPublic() {
		view.Location = shared.Location.Value
	}
	if shared.Languages.IsPublic() {
		view.Languages = shared.Languages.Value
	}
	view.OpenForRequests = shared.OpenForRequests.IsPublic() && shared.OpenForRequests.Value == "yes"

	slackUser, err := m.store.SlackUser(ctx, id)
	switch {
	case err == nil:
		view.SlackName = slackUser.Name
		view.AvatarURL = slackUser.Image
	case !errors.Is(err, storage.ErrNotFound):
		m.base.Log().WithError(err).WithField("orcid", id).Warn("load slack user")
	}

	view.Prereviews = m.prereviewCards(r, records)
	return response.Page{
		Title:       name,
		Main:        templates.Profile(view),
		Canonical:   routepath.Profile(id),
		AllowRobots: true,
	}, nil
}

func (m Module) pseudonymProfile(r *http.Request, pseudonym string) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	if pseudonym == "" {
		return nil, apperrors.E(apperrors.KindNotFound, "empty profile id")
	}
	user, err := m.store.UserByPseudonym(ctx, pseudonym)
	if err != nil {
		return nil, err
	}
	records, err := m.prereviews.RecordsByPseudonym(ctx, user.Pseudonym)
	if err != nil {
		return nil, err
	}
	return response.Page{
		Title: user.Pseudonym,
		Main: templates.Profile(templates.ProfileView{
			Name:       user.Pseudonym,
			Pseudonym:  true,
			Prereviews: m.prereviewCards(r, records),
		}),
		Canonical:   routepath.PseudonymProfile(user.Pseudonym),
		AllowRobots: true,
	}, nil
}

func (m Module) prereviewCards(r *http.Request, records []zenodo.Prereview) []templates.PrereviewCard {
	ctx := httpx.RequestContext(r)
	preprints := cards.Preprints(ctx, m.preprints, cards.PrereviewIDs(records), m.base.Log())
	return cards.Prereviews(records, preprints)
}
