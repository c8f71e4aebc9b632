package templates

import (
	"strconv"
	"strings"
	"time"
)

// PrereviewCard summarizes one published PREreview in a list.
type PrereviewCard struct {
	URL           string
	PreprintTitle string
	PreprintURL   string
	Server        string
	Authors       []string
	Club          string
	Language      string
	Fields        []string
	Published     time.Time
	Structured    bool
}

// RequestCard summarizes one review request in a list.
type RequestCard struct {
	PreprintTitle string
	PreprintURL   string
	Server        string
	Language      string
	Fields        []string
	Subfields     []string
	Published     time.Time
	WriteURL      string
}

// Option is one choice in a select, radio group or filter.
type Option struct {
	Value    string
	Label    string
	LabelKey string
	Selected bool
}

func (o Option) label(h *html) string {
	if o.LabelKey != "" {
		return T(h.ctx, o.LabelKey)
	}
	return o.Label
}

// Pager links to neighbouring pages of a listing.
type Pager struct {
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
}

func prereviewCards(h *html, cards []PrereviewCard) {
	h.open("ol", "class", "cards")
	for _, card := range cards {
		h.raw("<li><article>")
		h.open("a", "href", card.URL)
		if card.Structured {
			h.t("card.structured_prereview_of", card.PreprintTitle)
		} else {
			h.t("card.prereview_of", card.PreprintTitle)
		}
		h.close("a")
		if len(card.Authors) > 0 {
			h.el("p", T(h.ctx, "card.by", strings.Join(card.Authors, ", ")), "class", "byline")
		}
		if card.Club != "" {
			h.el("p", card.Club, "class", "club")
		}
		if len(card.Fields) > 0 {
			fieldList(h, card.Fields)
		}
		h.raw(`<dl class="meta">`)
		if card.Server != "" {
			h.elT("dt", "card.server")
			h.el("dd", card.Server)
		}
		h.elT("dt", "card.published")
		h.raw("<dd>")
		h.date(card.Published)
		h.raw("</dd>")
		h.raw("</dl>")
		h.raw("</article></li>")
	}
	h.close("ol")
}

func requestCards(h *html, cards []RequestCard) {
	h.open("ol", "class", "cards")
	for _, card := range cards {
		h.raw("<li><article>")
		h.open("a", "href", card.PreprintURL)
		h.t("card.review_requested_for", card.PreprintTitle)
		h.close("a")
		if len(card.Fields) > 0 {
			fieldList(h, card.Fields)
		}
		h.raw(`<dl class="meta">`)
		if card.Server != "" {
			h.elT("dt", "card.server")
			h.el("dd", card.Server)
		}
		if card.Language != "" {
			h.elT("dt", "card.language")
			h.el("dd", card.Language)
		}
		h.elT("dt", "card.requested")
		h.raw("<dd>")
		h.date(card.Published)
		h.raw("</dd>")
		h.raw("</dl>")
		if card.WriteURL != "" {
			h.link(card.WriteURL, T(h.ctx, "card.write_a_prereview"), "class", "button")
		}
		h.raw("</article></li>")
	}
	h.close("ol")
}

func fieldList(h *html, fields []string) {
	h.open("ul", "class", "categories")
	for _, field := range fields {
		h.el("li", field)
	}
	h.close("ul")
}

func pager(h *html, p Pager) {
	if p.TotalPages <= 1 {
		return
	}
	h.open("nav", "class", "pager", "aria-label", T(h.ctx, "pager.label"))
	if p.PrevURL != "" {
		h.link(p.PrevURL, T(h.ctx, "pager.newer"), "rel", "prev")
	}
	h.el("span", T(h.ctx, "pager.position", strconv.Itoa(p.Page), strconv.Itoa(p.TotalPages)))
	if p.NextURL != "" {
		h.link(p.NextURL, T(h.ctx, "pager.older"), "rel", "next")
	}
	h.close("nav")
}

func filterSelect(h *html, name, labelKey string, options []Option) {
	h.open("label", "for", name)
	h.t(labelKey)
	h.close("label")
	h.open("select", "id", name, "name", name)
	h.open("option", "value", "")
	h.t("filter.any")
	h.close("option")
	for _, option := range options {
		h.open("option", "value", option.Value, "selected", boolAttr(option.Selected, "selected"))
		h.text(option.label(h))
		h.close("option")
	}
	h.close("select")
}
