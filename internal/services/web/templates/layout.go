package templates

import (
	"github.com/a-h/templ"
	"github.com/prereview/prereview/internal/services/web/routepath"
)

// Nav names the highlighted top-level section.
type Nav string

const (
	NavNone           Nav = ""
	NavHome           Nav = "home"
	NavReviews        Nav = "reviews"
	NavReviewRequests Nav = "review-requests"
	NavClubs          Nav = "clubs"
	NavMyDetails      Nav = "my-details"
)

// SignedInUser is the header view of the session user.
type SignedInUser struct {
	Name       string
	ProfileURL string
}

// Notice is a flash message ready to show.
type Notice struct {
	Kind string
	Key  string
}

// LanguageLink switches the page language.
type LanguageLink struct {
	Tag    string
	Label  string
	URL    string
	Active bool
}

// Chrome is the request-scoped frame around page content.
type Chrome struct {
	Lang        string
	User        *SignedInUser
	Notice      *Notice
	Languages   []LanguageLink
	Canonical   string
	AllowRobots bool
	Streamline  bool
	Nav         Nav
}

// Document renders a complete HTML page around main.
func Document(title string, chrome Chrome, main templ.Component) templ.Component {
	return component(func(h *html) {
		lang := chrome.Lang
		if lang == "" {
			lang = "en-US"
		}
		h.raw("<!DOCTYPE html>")
		h.open("html", "lang", lang, "dir", "ltr")
		h.raw("<head>")
		h.raw(`<meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.el("title", T(h.ctx, "layout.title", title))
		if !chrome.AllowRobots {
			h.raw(`<meta name="robots" content="noindex">`)
		}
		if chrome.Canonical != "" {
			h.open("link", "rel", "canonical", "href", chrome.Canonical)
		}
		h.raw(`<link rel="stylesheet" href="/static/style.css">`)
		h.raw("</head>")
		h.raw("<body>")
		h.open("a", "href", "#main", "class", "skip-link")
		h.t("layout.skip_to_main")
		h.close("a")
		header(h, chrome)
		if chrome.Notice != nil {
			h.open("div", "class", "notification "+chrome.Notice.Kind, "role", "status")
			h.t("flash." + chrome.Notice.Key)
			h.close("div")
		}
		h.open("main", "id", "main")
		h.render(main)
		h.close("main")
		if !chrome.Streamline {
			footer(h)
		}
		h.raw("</body></html>")
	})
}

func header(h *html, chrome Chrome) {
	h.raw("<header>")
	h.open("a", "href", routepath.Home, "class", "logo")
	h.raw("PREreview")
	h.close("a")
	if chrome.Streamline {
		h.raw("</header>")
		return
	}
	h.open("nav", "aria-label", T(h.ctx, "layout.nav_label"))
	h.raw("<ul>")
	navItem(h, chrome.Nav, NavReviews, routepath.Reviews, "layout.nav_reviews")
	navItem(h, chrome.Nav, NavReviewRequests, routepath.ReviewRequests, "layout.nav_review_requests")
	navItem(h, chrome.Nav, NavClubs, routepath.Clubs, "layout.nav_clubs")
	if chrome.User != nil {
		navItem(h, chrome.Nav, NavMyDetails, routepath.MyDetails, "layout.nav_my_details")
		h.raw(`<li class="user">`)
		h.link(chrome.User.ProfileURL, chrome.User.Name)
		h.raw("</li>")
		h.raw("<li>")
		h.link(routepath.LogOut, T(h.ctx, "layout.log_out"))
		h.raw("</li>")
	} else {
		h.raw("<li>")
		h.link(routepath.LogIn, T(h.ctx, "layout.log_in"))
		h.raw("</li>")
	}
	h.raw("</ul>")
	h.close("nav")
	if len(chrome.Languages) > 1 {
		h.open("ul", "class", "languages")
		for _, option := range chrome.Languages {
			h.raw("<li>")
			if option.Active {
				h.el("span", option.Label, "lang", option.Tag, "aria-current", "true")
			} else {
				h.link(option.URL, option.Label, "lang", option.Tag, "hreflang", option.Tag)
			}
			h.raw("</li>")
		}
		h.close("ul")
	}
	h.raw("</header>")
}

func navItem(h *html, current, item Nav, href, key string) {
	h.raw("<li>")
	if current == item {
		h.link(href, T(h.ctx, key), "aria-current", "page")
	} else {
		h.link(href, T(h.ctx, key))
	}
	h.raw("</li>")
}

func footer(h *html) {
	h.raw("<footer>")
	h.raw("<ul>")
	for _, item := range []struct{ href, key string }{
		{"https://content.prereview.org/about", "layout.footer_about"},
		{"https://content.prereview.org/code-of-conduct", "layout.footer_code_of_conduct"},
		{"https://content.prereview.org/privacy-policy", "layout.footer_privacy"},
		{"mailto:help@prereview.org", "layout.footer_contact"},
	} {
		h.raw("<li>")
		h.link(item.href, T(h.ctx, item.key))
		h.raw("</li>")
	}
	h.raw("</ul>")
	h.el("p", T(h.ctx, "layout.footer_license"))
	h.raw("</footer>")
}
