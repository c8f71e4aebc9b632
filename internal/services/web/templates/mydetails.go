package templates

import "github.com/a-h/templ"

// DetailRow is one line of the my-details summary.
type DetailRow struct {
	LabelKey      string
	Value         string
	ValueKey      string
	VisibilityKey string
	ChangeURL     string
}

// MyDetailsView feeds the my-details page.
type MyDetailsView struct {
	Name       string
	ORCID      string
	ORCIDURL   string
	ProfileURL string
	Rows       []DetailRow
	SlackName  string
	SlackURL   string
}

// MyDetails renders the signed-in user's details with change links.
func MyDetails(v MyDetailsView) templ.Component {
	return component(func(h *html) {
		h.elT("h1", "my_details.heading")
		h.raw(`<p>`)
		h.link(v.ProfileURL, T(h.ctx, "my_details.view_profile"))
		h.raw(`</p>`)
		h.raw(`<dl class="summary">`)
		h.raw("<div>")
		h.elT("dt", "my_details.name")
		h.el("dd", v.Name)
		h.raw("</div>")
		h.raw("<div>")
		h.elT("dt", "my_details.orcid")
		h.raw("<dd>")
		h.link(v.ORCIDURL, v.ORCID)
		h.raw("</dd>")
		h.raw("</div>")
		for _, row := range v.Rows {
			h.raw("<div>")
			h.elT("dt", row.LabelKey)
			h.raw("<dd>")
			switch {
			case row.ValueKey != "":
				h.t(row.ValueKey)
			case row.Value != "":
				h.text(row.Value)
			default:
				h.el("span", T(h.ctx, "my_details.unknown"), "class", "unset")
			}
			if row.VisibilityKey != "" {
				h.el("p", T(h.ctx, row.VisibilityKey), "class", "visibility")
			}
			h.raw("</dd>")
			h.raw("<dd>")
			h.link(row.ChangeURL, T(h.ctx, "form.change"))
			h.raw("</dd>")
			h.raw("</div>")
		}
		h.raw("<div>")
		h.elT("dt", "my_details.slack")
		h.raw("<dd>")
		if v.SlackName != "" {
			h.text(v.SlackName)
		} else {
			h.el("span", T(h.ctx, "my_details.slack_not_connected"), "class", "unset")
		}
		h.raw("</dd>")
		h.raw("<dd>")
		h.link(v.SlackURL, T(h.ctx, "form.change"))
		h.raw("</dd>")
		h.raw("</div>")
		h.raw("</dl>")
	})
}
