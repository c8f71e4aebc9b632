package clubs

import (
	"net/http"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/services/web/platform/cards"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
)

func (m Module) directory(r *http.Request) (response.Response, error) {
	all := club.All()
	list := make([]templates.ClubCard, 0, len(all))
	for _, c := range all {
		list = append(list, templates.ClubCard{URL: routepath.Club(string(c.ID)), Name: c.Name, Description: c.Description})
	}
	return response.Page{
		Title:       templates.T(httpx.RequestContext(r), "clubs.title"),
		Main:        templates.Clubs(list),
		Nav:         templates.NavClubs,
		Canonical:   routepath.Clubs,
		AllowRobots: true,
	}, nil
}

func (m Module) club(r *http.Request) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	found, ok := club.ByID(club.ID(r.PathValue("id")))
	if !ok {
		return nil, apperrors.E(apperrors.KindNotFound, "unknown club")
	}
	records, err := m.prereviews.RecordsForClub(ctx, found.ID)
	if err != nil {
		return nil, err
	}
	preprints := cards.Preprints(ctx, m.preprints, cards.PrereviewIDs(records), m.base.Log())

	leads := make([]templates.PersonLink, 0, len(found.Leads))
	for _, lead := range found.Leads {
		leads = append(leads, templates.PersonLink{Name: lead.Name, URL: routepath.Profile(lead.ORCID)})
	}
	return response.Page{
		Title: found.Name,
		Main: templates.Club(templates.ClubView{
			Name:        found.Name,
			Description: found.Description,
			Leads:       leads,
			JoinURL:     found.JoinLink,
			Contact:     found.Contact,
			Prereviews:  cards.Prereviews(records, preprints),
		}),
		Nav:         templates.NavClubs,
		Canonical:   routepath.Club(string(found.ID)),
		AllowRobots: true,
	}, nil
}
