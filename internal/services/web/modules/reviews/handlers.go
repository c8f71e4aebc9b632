package reviews

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/prereview/prereview/internal/services/web/platform/cards"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/prereview/prereview/internal/zenodo"
)

type handlers struct {
	m Module
}

func newHandlers(m Module) handlers {
	return handlers{m: m}
}

// pageNumber reads ?page=; anything but a positive integer is not a page.
func pageNumber(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, apperrors.E(apperrors.KindNotFound, "invalid page "+raw)
	}
	return page, nil
}

func (h handlers) list(r *http.Request) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	page, err := pageNumber(r)
	if err != nil {
		return nil, err
	}
	query := r.URL.Query()
	field := query.Get("field")
	if !openalex.IsField(field) {
		field = ""
	}
	language := query.Get("language")
	if !slices.Contains(cards.ReviewLanguages, language) {
		language = ""
	}
	text := strings.TrimSpace(query.Get("query"))

	results, err := h.m.prereviews.Search(ctx, zenodo.Query{Text: text, Field: field, Language: language, Page: page})
	if err != nil {
		return nil, err
	}
	preprints := cards.Preprints(ctx, h.m.preprints, cards.PrereviewIDs(results.Records), h.m.base.Log())

	pager := templates.Pager{Page: results.Page, TotalPages: results.TotalPages}
	if results.Page > 1 {
		pager.PrevURL = routepath.WithPage(routepath.Reviews, query, results.Page-1)
	}
	if results.Page < results.TotalPages {
		pager.NextURL = routepath.WithPage(routepath.Reviews, query, results.Page+1)
	}
	return response.Page{
		Title: templates.T(ctx, "reviews.title", results.Page),
		Main: templates.Reviews(templates.ReviewsView{
			Query:     text,
			Fields:    cards.FieldOptions(field),
			Languages: cards.LanguageOptions(cards.ReviewLanguages, language),
			Cards:     cards.Prereviews(results.Records, preprints),
			Pager:     pager,
		}),
		Nav:         templates.NavReviews,
		Canonical:   routepath.WithPage(routepath.Reviews, nil, results.Page),
		AllowRobots: text == "" && field == "" && language == "",
	}, nil
}

func (h handlers) review(r *http.Request) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 {
		return nil, apperrors.E(apperrors.KindNotFound, "invalid review id")
	}
	record, err := h.m.prereviews.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	view := templates.ReviewView{
		PreprintTitle: record.PreprintDOI,
		PreprintURL:   "https://doi.org/" + record.PreprintDOI,
		Authors:       authorLinks(record.Authors),
		DOI:           record.DOI,
		License:       record.License,
		Published:     record.Published,
		Structured:    record.Structured,
		TextHTML:      record.Text,
	}
	if c, ok := club.ByID(record.Club); ok {
		view.Club = &templates.PersonLink{Name: c.Name, URL: routepath.Club(string(c.ID))}
	}
	if preprintID, err := preprint.FromDOI(record.PreprintDOI); err == nil {
		view.PreprintURL = routepath.Preprint(preprintID)
		found := cards.Preprints(ctx, h.m.preprints, []preprint.ID{preprintID}, h.m.base.Log())
		if item, ok := found[preprintID.DOI]; ok && item.Title != "" {
			view.PreprintTitle = htmlsanitize.PlainText(item.Title)
		}
	}
	return response.Page{
		Title:       templates.T(ctx, "review.title", view.PreprintTitle),
		Main:        templates.Review(view),
		Nav:         templates.NavReviews,
		Canonical:   routepath.Review(record.ID),
		AllowRobots: true,
	}, nil
}

func authorLinks(authors []zenodo.Author) []templates.PersonLink {
	out := make([]templates.PersonLink, 0, len(authors))
	for _, author := range authors {
		link := templates.PersonLink{Name: author.Name}
		switch {
		case orcid.IsValid(author.ORCID):
			link.URL = routepath.Profile(orcid.ID(author.ORCID))
		case author.Name != "":
			link.URL = routepath.PseudonymProfile(author.Name)
		}
		out = append(out, link)
	}
	return out
}

func (h handlers) preprint(r *http.Request) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	id, err := preprint.ParseRouteSegment(r.PathValue("preprintID"))
	if err != nil {
		return nil, err
	}
	if h.m.preprints == nil {
		return nil, apperrors.E(apperrors.KindUnavailable, "preprint lookup is not configured")
	}
	item, err := h.m.preprints.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := h.m.prereviews.RecordsForPreprint(ctx, id.DOI)
	if err != nil {
		return nil, err
	}
	requests := 0
	if h.m.requests != nil {
		requests = len(reviewrequest.ForPreprint(h.m.requests.Snapshot(), id.DOI))
	}

	authors := make([]string, 0, len(item.Authors))
	for _, author := range item.Authors {
		authors = append(authors, author.Name)
	}
	title := htmlsanitize.PlainText(item.Title)
	return response.Page{
		Title: title,
		Main: templates.Preprint(templates.PreprintView{
			Title:        title,
			Authors:      authors,
			AbstractHTML: htmlsanitize.Sanitize(item.Abstract),
			Posted:       item.Posted,
			Server:       id.Server.Name(),
			DOI:          id.DOI,
			URL:          preprintURL(item),
			Requests:     requests,
			WriteURL:     routepath.WriteReviewStep(id, ""),
			RequestURL:   routepath.RequestReviewStep(id, ""),
			Prereviews:   cards.Prereviews(records, map[string]preprint.Preprint{id.DOI: item}),
		}),
		Canonical:   routepath.Preprint(id),
		AllowRobots: true,
	}, nil
}

func preprintURL(item preprint.Preprint) string {
	if item.URL != "" {
		return item.URL
	}
	return item.ID.URL()
}
