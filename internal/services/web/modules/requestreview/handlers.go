package requestreview

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/forms"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/sirupsen/logrus"
)

const (
	stepChooseName = "choose-name"
	stepCheck      = "check"
	stepPublished  = "published"
)

const (
	personaPublic    = "public"
	personaPseudonym = "pseudonym"
)

// requestForm is what the flow has gathered so far.
type requestForm struct {
	Title     string `json:"title"`
	Persona   string `json:"persona,omitempty"`
	Published bool   `json:"published,omitempty"`
}

type whichPreprintInput struct {
	Preprint string `form:"preprint" validate:"required"`
}

type personaInput struct {
	Persona string `form:"persona" validate:"required,oneof=public pseudonym"`
}

type handlers struct {
	m Module
}

func newHandlers(m Module) handlers {
	return handlers{m: m}
}

func (h handlers) whichPreprint(r *http.Request) (response.Response, error) {
	return whichPreprintPage(r, "", "", http.StatusOK), nil
}

func whichPreprintPage(r *http.Request, value, errKey string, status int) response.Response {
	view := templates.FormView{
		HeadingKey: "request_review.which_preprint.heading",
		Action:     routepath.RequestReview,
		SubmitKey:  "form.continue",
		Fields: []templates.Field{templates.TextInput{
			Name:     "preprint",
			LabelKey: "request_review.which_preprint.label",
			HintKey:  "request_review.which_preprint.hint",
			Value:    value,
			Error:    errKey,
		}},
	}
	if errKey != "" {
		view.Errors = []templates.FieldError{{Field: "preprint", Key: errKey}}
	}
	return response.StreamlinePage{
		Title:  templates.T(r.Context(), "request_review.which_preprint.heading"),
		Status: status,
		Main:   templates.Form(view),
	}
}

func (h handlers) submitWhichPreprint(r *http.Request) (response.Response, error) {
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	input := whichPreprintInput{Preprint: strings.TrimSpace(r.PostForm.Get("preprint"))}
	if errs := forms.Check(input); errs.Has("preprint") {
		return whichPreprintPage(r, input.Preprint, "request_review.error.preprint_missing", http.StatusBadRequest), nil
	}
	id, err := preprint.ParseIdentifier(input.Preprint)
	switch {
	case errors.Is(err, preprint.ErrUnsupported):
		return nil, err
	case err != nil:
		return whichPreprintPage(r, input.Preprint, "request_review.error.preprint_invalid", http.StatusBadRequest), nil
	}
	if _, err := h.m.preprints.Get(httpx.RequestContext(r), id); err != nil {
		if errors.Is(err, preprint.ErrNotFound) {
			return whichPreprintPage(r, input.Preprint, "request_review.error.preprint_not_found", http.StatusBadRequest), nil
		}
		return nil, err
	}
	return response.Redirect{Location: routepath.RequestReviewStep(id, "")}, nil
}

func (h handlers) lookup(r *http.Request) (preprint.ID, preprint.Preprint, error) {
	id, err := preprint.ParseRouteSegment(r.PathValue("preprintID"))
	if err != nil {
		return preprint.ID{}, preprint.Preprint{}, err
	}
	item, err := h.m.preprints.Get(httpx.RequestContext(r), id)
	if err != nil {
		return preprint.ID{}, preprint.Preprint{}, err
	}
	return id, item, nil
}

func (h handlers) start(r *http.Request) (response.Response, error) {
	id, item, err := h.lookup(r)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	title := htmlsanitize.PlainText(item.Title)
	return response.StreamlinePage{
		Title: templates.T(ctx, "request_review.start.title", title),
		Main: templates.Form(templates.FormView{
			Caption:    title,
			HeadingKey: "request_review.start.heading",
			Action:     routepath.RequestReviewStep(id, ""),
			SubmitKey:  "form.start_now",
			Fields: []templates.Field{
				templates.Paragraph{Key: "request_review.start.explain"},
				templates.Paragraph{Key: "request_review.start.orcid"},
			},
		}),
		Canonical: routepath.RequestReviewStep(id, ""),
	}, nil
}

func (h handlers) begin(r *http.Request) (response.Response, error) {
	id, item, err := h.lookup(r)
	if err != nil {
		return nil, err
	}
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return response.LogIn{Location: routepath.RequestReviewStep(id, "")}, nil
	}
	ctx := r.Context()
	form, found, err := h.m.forms.Load(ctx, user.ORCID, id.DOI)
	if err != nil {
		return nil, err
	}
	if found && !form.Published {
		return response.Redirect{Location: nextStep(id, form)}, nil
	}
	form = requestForm{Title: htmlsanitize.PlainText(item.Title)}
	if err := h.m.forms.Save(ctx, user.ORCID, id.DOI, form); err != nil {
		return nil, err
	}
	return response.Redirect{Location: routepath.RequestReviewStep(id, stepChooseName)}, nil
}

func nextStep(id preprint.ID, form requestForm) string {
	switch {
	case form.Published:
		return routepath.RequestReviewStep(id, stepPublished)
	case form.Persona == "":
		return routepath.RequestReviewStep(id, stepChooseName)
	default:
		return routepath.RequestReviewStep(id, stepCheck)
	}
}

// flowState is the state every step after the start page needs.
type flowState struct {
	id   preprint.ID
	user requestctx.User
	form requestForm
}

// load resolves the step's preprint, user and saved form. A non-nil
// response sends the visitor somewhere more appropriate.
func (h handlers) load(r *http.Request) (flowState, response.Response, error) {
	id, err := preprint.ParseRouteSegment(r.PathValue("preprintID"))
	if err != nil {
		return flowState{}, nil, err
	}
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return flowState{}, response.LogIn{Location: routepath.RequestReviewStep(id, "")}, nil
	}
	form, found, err := h.m.forms.Load(r.Context(), user.ORCID, id.DOI)
	if err != nil {
		return flowState{}, nil, err
	}
	if !found {
		return flowState{}, response.Redirect{Location: routepath.RequestReviewStep(id, "")}, nil
	}
	return flowState{id: id, user: user, form: form}, nil, nil
}

func (h handlers) chooseName(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.form.Published {
		return response.Redirect{Location: nextStep(state.id, state.form)}, nil
	}
	return chooseNamePage(r, state, state.form.Persona, "", http.StatusOK), nil
}

func chooseNamePage(r *http.Request, state flowState, selected, errKey string, status int) response.Response {
	view := templates.FormView{
		Caption:    state.form.Title,
		HeadingKey: "choose_name.heading",
		Action:     routepath.RequestReviewStep(state.id, stepChooseName),
		BackURL:    routepath.RequestReviewStep(state.id, ""),
		Fields: []templates.Field{templates.Radios{
			Name:    "persona",
			HintKey: "choose_name.hint",
			Error:   errKey,
			Options: []templates.Option{
				{Value: personaPublic, Label: state.user.Name, Selected: selected == personaPublic},
				{Value: personaPseudonym, Label: state.user.Pseudonym, Selected: selected == personaPseudonym},
			},
		}},
	}
	if errKey != "" {
		view.Errors = []templates.FieldError{{Field: "persona", Key: errKey}}
	}
	return response.StreamlinePage{
		Title:  templates.T(r.Context(), "choose_name.heading"),
		Status: status,
		Main:   templates.Form(view),
	}
}

func (h handlers) submitChooseName(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.form.Published {
		return response.Redirect{Location: nextStep(state.id, state.form)}, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	input := personaInput{Persona: r.PostForm.Get("persona")}
	if errs := forms.Check(input); errs.Has("persona") {
		return chooseNamePage(r, state, "", "choose_name.error.missing", http.StatusBadRequest), nil
	}
	state.form.Persona = input.Persona
	if err := h.m.forms.Save(r.Context(), state.user.ORCID, state.id.DOI, state.form); err != nil {
		return nil, err
	}
	return response.Redirect{Location: routepath.RequestReviewStep(state.id, stepCheck)}, nil
}

func displayName(user requestctx.User, persona string) string {
	if persona == personaPseudonym {
		return user.Pseudonym
	}
	return user.Name
}

func (h handlers) check(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.form.Published || state.form.Persona == "" {
		return response.Redirect{Location: nextStep(state.id, state.form)}, nil
	}
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "request_review.check.heading"),
		Main: templates.Form(templates.FormView{
			Caption:    state.form.Title,
			HeadingKey: "request_review.check.heading",
			Action:     routepath.RequestReviewStep(state.id, stepCheck),
			BackURL:    routepath.RequestReviewStep(state.id, stepChooseName),
			SubmitKey:  "request_review.check.submit",
			Fields: []templates.Field{templates.SummaryList{Rows: []templates.SummaryRow{
				{LabelKey: "request_review.check.preprint", Value: state.form.Title},
				{
					LabelKey:  "request_review.check.published_name",
					Value:     displayName(state.user, state.form.Persona),
					ChangeURL: routepath.RequestReviewStep(state.id, stepChooseName),
				},
			}}},
		}),
	}, nil
}

func (h handlers) submitCheck(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.form.Published || state.form.Persona == "" {
		return response.Redirect{Location: nextStep(state.id, state.form)}, nil
	}
	ctx := r.Context()
	// The route only carries the DOI; the registry knows which server holds it.
	item, err := h.m.preprints.Get(httpx.RequestContext(r), state.id)
	if err != nil {
		return nil, err
	}
	id := state.id.Disambiguate(item.ID.Server)
	requester := reviewrequest.Requester{Name: displayName(state.user, state.form.Persona)}
	if state.form.Persona == personaPublic {
		requester.ORCID = string(state.user.ORCID)
	}
	requestID, err := h.m.publisher.Publish(ctx, id, requester)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, err)
	}
	log := h.m.base.Log().WithField("review_request_id", requestID.String())
	log.WithFields(logrus.Fields{"doi": id.DOI, "server": id.Server}).Info("review request published")
	h.announce(r, state, requester)

	state.form.Published = true
	if err := h.m.forms.Save(ctx, state.user.ORCID, state.id.DOI, state.form); err != nil {
		log.WithError(err).Warn("mark request form published")
	}
	return response.Redirect{Location: routepath.RequestReviewStep(state.id, stepPublished)}, nil
}

// announce tells the community about the request. Failures are only logged.
func (h handlers) announce(r *http.Request, state flowState, requester reviewrequest.Requester) {
	if h.m.announcer == nil || h.m.cfg.SlackChannel == "" {
		return
	}
	text := fmt.Sprintf("%s is looking for reviews of <%s|%s>.",
		requester.Name, h.m.cfg.Origin+routepath.Preprint(state.id), state.form.Title)
	if err := h.m.announcer.PostMessage(r.Context(), h.m.cfg.SlackChannel, text); err != nil {
		h.m.base.Log().WithError(err).WithField("request_id", httpx.RequestIDOf(r)).Warn("announce review request")
	}
}

func (h handlers) published(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if !state.form.Published {
		return response.Redirect{Location: nextStep(state.id, state.form)}, nil
	}
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "request_review.published.heading"),
		Main: templates.Message(templates.MessageView{
			Panel:      true,
			HeadingKey: "request_review.published.heading",
			Paragraphs: []templates.Paragraph{
				{Key: "request_review.published.next"},
			},
			Links: []templates.LinkButton{{URL: routepath.ReviewRequests, LabelKey: "request_review.published.see_requests"}},
		}),
	}, nil
}
