package templates

import (
	"github.com/a-h/templ"
	"github.com/prereview/prereview/internal/services/web/routepath"
)

// HomeView feeds the home page.
type HomeView struct {
	RecentPrereviews []PrereviewCard
	RecentRequests   []RequestCard
}

// Home renders the landing page.
func Home(v HomeView) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="hero">`)
		h.elT("h1", "home.heading")
		h.elT("p", "home.lead")
		h.link(routepath.WriteReview, T(h.ctx, "home.write_a_prereview"), "class", "button")
		h.link(routepath.RequestReview, T(h.ctx, "home.request_a_prereview"), "class", "button")
		h.raw("</div>")

		if len(v.RecentRequests) > 0 {
			h.raw(`<section aria-labelledby="recent-requests-title">`)
			h.el("h2", T(h.ctx, "home.recent_requests"), "id", "recent-requests-title")
			requestCards(h, v.RecentRequests)
			h.link(routepath.ReviewRequests, T(h.ctx, "home.see_all_requests"))
			h.raw("</section>")
		}

		h.raw(`<section aria-labelledby="recent-prereviews-title">`)
		h.el("h2", T(h.ctx, "home.recent_prereviews"), "id", "recent-prereviews-title")
		if len(v.RecentPrereviews) == 0 {
			h.elT("p", "home.no_prereviews")
		} else {
			prereviewCards(h, v.RecentPrereviews)
		}
		h.link(routepath.Reviews, T(h.ctx, "home.see_all_prereviews"))
		h.raw("</section>")
	})
}

// ReviewsView feeds the PREreview listing.
type ReviewsView struct {
	Query     string
	Fields    []Option
	Languages []Option
	Cards     []PrereviewCard
	Pager     Pager
}

// Reviews renders the searchable list of PREreviews.
func Reviews(v ReviewsView) templ.Component {
	return component(func(h *html) {
		h.elT("h1", "reviews.heading")
		h.open("form", "method", "get", "action", routepath.Reviews, "role", "search", "class", "filters")
		h.open("label", "for", "query")
		h.t("reviews.search_label")
		h.close("label")
		h.open("input", "type", "search", "id", "query", "name", "query", "value", v.Query)
		filterSelect(h, "field", "filter.field", v.Fields)
		filterSelect(h, "language", "filter.language", v.Languages)
		h.open("button", "type", "submit")
		h.t("filter.apply")
		h.close("button")
		h.close("form")
		if len(v.Cards) == 0 {
			h.elT("p", "reviews.none_found")
			return
		}
		prereviewCards(h, v.Cards)
		pager(h, v.Pager)
	})
}

// RequestsView feeds the review-request listing.
type RequestsView struct {
	Fields    []Option
	Languages []Option
	Cards     []RequestCard
	Pager     Pager
}

// ReviewRequests renders the filterable list of review requests.
func ReviewRequests(v RequestsView) templ.Component {
	return component(func(h *html) {
		h.elT("h1", "requests.heading")
		h.open("form", "method", "get", "action", routepath.ReviewRequests, "class", "filters")
		filterSelect(h, "field", "filter.field", v.Fields)
		filterSelect(h, "language", "filter.language", v.Languages)
		h.open("button", "type", "submit")
		h.t("filter.apply")
		h.close("button")
		h.close("form")
		if len(v.Cards) == 0 {
			h.elT("p", "requests.none_found")
			return
		}
		requestCards(h, v.Cards)
		pager(h, v.Pager)
	})
}

// ClubCard summarizes a club.
type ClubCard struct {
	URL         string
	Name        string
	Description string
}

// Clubs renders the club directory.
func Clubs(cards []ClubCard) templ.Component {
	return component(func(h *html) {
		h.elT("h1", "clubs.heading")
		h.elT("p", "clubs.lead")
		h.open("ol", "class", "cards")
		for _, card := range cards {
			h.raw("<li><article>")
			h.link(card.URL, card.Name)
			h.el("p", card.Description)
			h.raw("</article></li>")
		}
		h.close("ol")
	})
}

// PersonLink is a named link to a profile.
type PersonLink struct {
	Name string
	URL  string
}

// ClubView feeds a club page.
type ClubView struct {
	Name        string
	Description string
	Leads       []PersonLink
	JoinURL     string
	Contact     string
	Prereviews  []PrereviewCard
}

// Club renders one club with its PREreviews.
func Club(v ClubView) templ.Component {
	return component(func(h *html) {
		h.el("h1", v.Name)
		h.el("p", v.Description)
		if len(v.Leads) > 0 {
			h.raw("<dl>")
			h.elT("dt", "club.leads")
			for _, lead := range v.Leads {
				h.raw("<dd>")
				h.link(lead.URL, lead.Name)
				h.raw("</dd>")
			}
			h.raw("</dl>")
		}
		if v.JoinURL != "" {
			h.link(v.JoinURL, T(h.ctx, "club.join"), "class", "button")
		}
		if v.Contact != "" {
			h.link("mailto:"+v.Contact, T(h.ctx, "club.contact"))
		}
		h.elT("h2", "club.prereviews")
		if len(v.Prereviews) == 0 {
			h.elT("p", "club.no_prereviews")
			return
		}
		prereviewCards(h, v.Prereviews)
	})
}

// ProfileView feeds a public profile page.
type ProfileView struct {
	Name              string
	ORCID             string
	ORCIDURL          string
	Pseudonym         bool
	Clubs             []PersonLink
	CareerStage       string
	ResearchInterests string
	Location          string
	Languages         string
	OpenForRequests   bool
	SlackName         string
	AvatarURL         string
	Prereviews        []PrereviewCard
}

// Profile renders a reviewer profile.
func Profile(v ProfileView) templ.Component {
	return component(func(h *html) {
		if v.AvatarURL != "" {
			h.open("img", "src", v.AvatarURL, "alt", "", "class", "avatar", "width", "80", "height", "80")
		}
		h.el("h1", v.Name)
		h.raw("<dl>")
		if v.ORCIDURL != "" {
			h.elT("dt", "profile.orcid")
			h.raw("<dd>")
			h.link(v.ORCIDURL, v.ORCID)
			h.raw("</dd>")
		}
		if v.Pseudonym {
			h.elT("dt", "profile.pseudonym")
			h.elT("dd", "profile.pseudonym_explained")
		}
		for _, row := range []struct{ key, value string }{
			{"profile.career_stage", v.CareerStage},
			{"profile.research_interests", v.ResearchInterests},
			{"profile.location", v.Location},
			{"profile.languages", v.Languages},
			{"profile.slack", v.SlackName},
		} {
			if row.value == "" {
				continue
			}
			h.elT("dt", row.key)
			h.el("dd", row.value)
		}
		if len(v.Clubs) > 0 {
			h.elT("dt", "profile.clubs")
			for _, c := range v.Clubs {
				h.raw("<dd>")
				h.link(c.URL, c.Name)
				h.raw("</dd>")
			}
		}
		h.raw("</dl>")
		if v.OpenForRequests {
			h.el("p", T(h.ctx, "profile.open_for_requests"), "class", "tag")
		}
		h.elT("h2", "profile.prereviews")
		if len(v.Prereviews) == 0 {
			h.elT("p", "profile.no_prereviews")
			return
		}
		prereviewCards(h, v.Prereviews)
	})
}
