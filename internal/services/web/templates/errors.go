package templates

import (
	"github.com/a-h/templ"
	"github.com/prereview/prereview/internal/services/web/routepath"
)

// Problem names one of the shared error pages.
type Problem string

const (
	ProblemPageNotFound   Problem = "page_not_found"
	ProblemHavingProblems Problem = "having_problems"
	ProblemNoPermission   Problem = "no_permission"
	ProblemNotSupported   Problem = "not_supported"
	ProblemNotAPreprint   Problem = "not_a_preprint"
	ProblemInvalidLink    Problem = "invalid_link"
	ProblemTooManyEmails  Problem = "too_many_requests"
	ProblemInviteDeclined Problem = "invite_declined"
)

// ProblemTitleKey returns the message key of the page title.
func ProblemTitleKey(p Problem) string {
	return "problem." + string(p) + ".title"
}

// ProblemPage renders a shared error page.
func ProblemPage(p Problem) templ.Component {
	return component(func(h *html) {
		h.elT("h1", "problem."+string(p)+".title")
		h.elT("p", "problem."+string(p)+".message")
		switch p {
		case ProblemHavingProblems:
			h.elT("p", "problem.having_problems.try_later")
		case ProblemNotSupported:
			h.raw("<p>")
			h.link("mailto:help@prereview.org", T(h.ctx, "problem.not_supported.contact"))
			h.raw("</p>")
		}
		h.raw("<p>")
		h.link(routepath.Home, T(h.ctx, "problem.back_home"))
		h.raw("</p>")
	})
}
