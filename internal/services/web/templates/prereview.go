package templates

import (
	"time"

	"github.com/a-h/templ"
)

// ReviewView feeds the page of one PREreview.
type ReviewView struct {
	PreprintTitle string
	PreprintURL   string
	Authors       []PersonLink
	Club          *PersonLink
	DOI           string
	License       string
	Published     time.Time
	Structured    bool
	// TextHTML is sanitized markup.
	TextHTML string
}

// Review renders a published PREreview.
func Review(v ReviewView) templ.Component {
	return component(func(h *html) {
		h.raw("<header>")
		h.open("h1")
		if v.Structured {
			h.t("review.structured_heading")
		} else {
			h.t("review.heading")
		}
		h.raw(" ")
		h.link(v.PreprintURL, v.PreprintTitle)
		h.close("h1")
		h.raw(`<div class="byline">`)
		h.t("review.authored_by")
		h.raw(" ")
		for i, author := range v.Authors {
			if i > 0 {
				h.raw(", ")
			}
			if author.URL == "" {
				h.text(author.Name)
			} else {
				h.link(author.URL, author.Name)
			}
		}
		if v.Club != nil {
			h.raw(" ")
			h.t("review.of_club")
			h.raw(" ")
			h.link(v.Club.URL, v.Club.Name)
		}
		h.raw("</div>")
		h.raw(`<dl class="meta">`)
		h.elT("dt", "review.published")
		h.raw("<dd>")
		h.date(v.Published)
		h.raw("</dd>")
		h.elT("dt", "review.doi")
		h.raw("<dd>")
		h.link("https://doi.org/"+v.DOI, v.DOI, "class", "doi")
		h.raw("</dd>")
		h.elT("dt", "review.license")
		h.el("dd", v.License)
		h.raw("</dl>")
		h.raw("</header>")
		h.raw(`<div class="prose">`)
		h.raw(v.TextHTML)
		h.raw("</div>")
	})
}

// PreprintView feeds the page of one preprint and its PREreviews.
type PreprintView struct {
	Title        string
	Authors      []string
	AbstractHTML string
	Posted       time.Time
	Server       string
	DOI          string
	URL          string
	Requests     int
	WriteURL     string
	RequestURL   string
	Prereviews   []PrereviewCard
}

// Preprint renders a preprint with its PREreviews.
func Preprint(v PreprintView) templ.Component {
	return component(func(h *html) {
		h.raw("<article class=\"preprint\">")
		h.el("h1", v.Title)
		if len(v.Authors) > 0 {
			h.open("ul", "class", "authors")
			for _, author := range v.Authors {
				h.el("li", author)
			}
			h.close("ul")
		}
		h.raw(`<dl class="meta">`)
		h.elT("dt", "preprint.posted")
		h.raw("<dd>")
		h.date(v.Posted)
		h.raw("</dd>")
		h.elT("dt", "preprint.server")
		h.el("dd", v.Server)
		h.elT("dt", "preprint.doi")
		h.raw("<dd>")
		h.link(v.URL, v.DOI, "class", "doi")
		h.raw("</dd>")
		h.raw("</dl>")
		if v.AbstractHTML != "" {
			h.elT("h2", "preprint.abstract")
			h.raw(`<div class="prose">`)
			h.raw(v.AbstractHTML)
			h.raw("</div>")
		}
		h.raw("</article>")

		h.raw(`<aside class="actions">`)
		if v.Requests > 0 {
			h.el("p", T(h.ctx, "preprint.requests", v.Requests))
		}
		h.link(v.WriteURL, T(h.ctx, "preprint.write_a_prereview"), "class", "button")
		h.link(v.RequestURL, T(h.ctx, "preprint.request_a_prereview"), "class", "button secondary")
		h.raw("</aside>")

		h.el("h2", T(h.ctx, "preprint.prereviews_count", len(v.Prereviews)))
		if len(v.Prereviews) > 0 {
			prereviewCards(h, v.Prereviews)
		}
	})
}
