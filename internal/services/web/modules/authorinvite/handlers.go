package authorinvite

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/platform/contactemail"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/flash"
	"github.com/prereview/prereview/internal/services/web/platform/forms"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/prereview/prereview/internal/zenodo"
)

const (
	stepChooseName   = "choose-name"
	stepEnterEmail   = "enter-email-address"
	stepNeedToVerify = "need-to-verify"
	stepCheck        = "check"
	stepPublished    = "published"
)

const (
	personaPublic    = "public"
	personaPseudonym = "pseudonym"
)

type personaInput struct {
	Persona string `form:"persona" validate:"required,oneof=public pseudonym"`
}

type emailInput struct {
	Email string `form:"emailAddress" validate:"required,email,max=254"`
}

type handlers struct {
	m Module
}

func (h handlers) invite(r *http.Request) (storage.AuthorInvite, error) {
	id, err := uuid.Parse(r.PathValue("inviteID"))
	if err != nil {
		return storage.AuthorInvite{}, apperrors.Wrap(apperrors.KindNotFound, err)
	}
	return h.m.invites.AuthorInvite(httpx.RequestContext(r), id)
}

// divert answers a request for an invite the visitor should not be on.
func (h handlers) divert(r *http.Request, invite storage.AuthorInvite, user requestctx.User, dest destination) (response.Response, error) {
	switch dest {
	case toStart:
		return response.Redirect{Location: routepath.AuthorInvite(invite.ID, "")}, nil
	case toLogIn:
		return response.LogIn{Location: routepath.AuthorInvite(invite.ID, "")}, nil
	case toContinue:
		contact, found, err := h.m.emails.Current(r.Context(), user.ORCID)
		if err != nil {
			return nil, err
		}
		return response.Redirect{Location: routepath.AuthorInvite(invite.ID, nextStep(invite, contact, found))}, nil
	case toPublished:
		return response.Redirect{Location: routepath.AuthorInvite(invite.ID, stepPublished)}, nil
	case toWrongUser:
		return nil, apperrors.E(apperrors.KindWrongUser, "invite is assigned to someone else")
	case toDeclined:
		return nil, apperrors.E(apperrors.KindDeclined, "invite was declined")
	default:
		return nil, apperrors.E(apperrors.KindNotFound, "invite has an unknown status")
	}
}

// flowState is what every step of an accepted invite needs.
type flowState struct {
	invite     storage.AuthorInvite
	user       requestctx.User
	contact    storage.ContactEmail
	hasContact bool
}

func (s flowState) next() string {
	return nextStep(s.invite, s.contact, s.hasContact)
}

func (s flowState) url(step string) string {
	return routepath.AuthorInvite(s.invite.ID, step)
}

// load resolves the invite and the signed-in assignee. A non-nil response
// sends anyone else where route says they belong.
func (h handlers) load(r *http.Request) (flowState, response.Response, error) {
	invite, err := h.invite(r)
	if err != nil {
		return flowState{}, nil, err
	}
	user, signedIn := requestctx.UserFrom(r.Context())
	if dest := route(invite, user, signedIn); dest != toContinue {
		resp, err := h.divert(r, invite, user, dest)
		return flowState{}, resp, err
	}
	contact, found, err := h.m.emails.Current(r.Context(), user.ORCID)
	if err != nil {
		return flowState{}, nil, err
	}
	return flowState{invite: invite, user: user, contact: contact, hasContact: found}, nil, nil
}

func (h handlers) start(r *http.Request) (response.Response, error) {
	invite, err := h.invite(r)
	if err != nil {
		return nil, err
	}
	user, signedIn := requestctx.UserFrom(r.Context())
	if dest := route(invite, user, signedIn); dest != toStart {
		return h.divert(r, invite, user, dest)
	}
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "author_invite.start.heading"),
		Main: templates.Form(templates.FormView{
			Caption:    invite.PreprintTitle,
			HeadingKey: "author_invite.start.heading",
			Action:     routepath.AuthorInvite(invite.ID, ""),
			SubmitKey:  "form.start_now",
			Fields: []templates.Field{
				templates.Paragraph{Key: "author_invite.start.explain", Args: []any{invite.InviterName, invite.PreprintTitle}},
				templates.Paragraph{Key: "author_invite.start.orcid"},
			},
		}),
	}, nil
}

func (h handlers) accept(r *http.Request) (response.Response, error) {
	invite, err := h.invite(r)
	if err != nil {
		return nil, err
	}
	user, signedIn := requestctx.UserFrom(r.Context())
	dest := route(invite, user, signedIn)
	if dest != toStart {
		return h.divert(r, invite, user, dest)
	}
	if !signedIn {
		return response.LogIn{Location: routepath.AuthorInvite(invite.ID, "")}, nil
	}
	invite.Status = storage.InviteAssigned
	invite.AssignedTo = user.ORCID
	if err := h.m.invites.SaveAuthorInvite(r.Context(), invite); err != nil {
		return nil, err
	}
	h.m.base.Log().WithField("invite_id", invite.ID.String()).Info("author invite accepted")
	return response.Redirect{Location: routepath.AuthorInvite(invite.ID, stepChooseName)}, nil
}

func (h handlers) chooseName(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return chooseNamePage(r, state, state.invite.Persona, "", http.StatusOK), nil
}

func chooseNamePage(r *http.Request, state flowState, selected, errKey string, status int) response.Response {
	view := templates.FormView{
		Caption:    state.invite.PreprintTitle,
		HeadingKey: "choose_name.heading",
		Action:     state.url(stepChooseName),
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
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	input := personaInput{Persona: r.PostForm.Get("persona")}
	if errs := forms.Check(input); errs.Has("persona") {
		return chooseNamePage(r, state, "", "choose_name.error.missing", http.StatusBadRequest), nil
	}
	state.invite.Persona = input.Persona
	if err := h.m.invites.SaveAuthorInvite(r.Context(), state.invite); err != nil {
		return nil, err
	}
	return response.Redirect{Location: state.url(state.next())}, nil
}

func (h handlers) enterEmail(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.invite.Persona == "" {
		return response.Redirect{Location: state.url(state.next())}, nil
	}
	value := state.contact.Address
	if value == "" {
		value = state.invite.Email
	}
	return enterEmailPage(r, state, value, "", http.StatusOK), nil
}

func enterEmailPage(r *http.Request, state flowState, value, errKey string, status int) response.Response {
	view := templates.FormView{
		Caption:    state.invite.PreprintTitle,
		HeadingKey: "author_invite.enter_email.heading",
		Action:     state.url(stepEnterEmail),
		BackURL:    state.url(stepChooseName),
		Fields: []templates.Field{templates.TextInput{
			Name:         "emailAddress",
			Type:         "email",
			LabelKey:     "author_invite.enter_email.label",
			HintKey:      "author_invite.enter_email.hint",
			Value:        value,
			Autocomplete: "email",
			Error:        errKey,
		}},
	}
	if errKey != "" {
		view.Errors = []templates.FieldError{{Field: "emailAddress", Key: errKey}}
	}
	return response.StreamlinePage{
		Title:  templates.T(r.Context(), "author_invite.enter_email.heading"),
		Status: status,
		Main:   templates.Form(view),
	}
}

func (h handlers) submitEnterEmail(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.invite.Persona == "" {
		return response.Redirect{Location: state.url(state.next())}, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	input := emailInput{Email: strings.TrimSpace(r.PostForm.Get("emailAddress"))}
	if errs := forms.Check(input); errs.Has("emailAddress") {
		return enterEmailPage(r, state, input.Email, "author_invite.error.email_invalid", http.StatusBadRequest), nil
	}
	ctx := r.Context()
	if err := h.m.emails.Request(ctx, state.user, input.Email); err != nil {
		if errors.Is(err, contactemail.ErrRateLimited) {
			return weberror.ProblemPage(r, templates.ProblemTooManyEmails, http.StatusTooManyRequests), nil
		}
		return nil, err
	}
	contact, found, err := h.m.emails.Current(ctx, state.user.ORCID)
	if err != nil {
		return nil, err
	}
	return response.Redirect{Location: state.url(nextStep(state.invite, contact, found))}, nil
}

func (h handlers) needToVerify(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.next() != stepNeedToVerify {
		return response.Redirect{Location: state.url(state.next())}, nil
	}
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "author_invite.need_to_verify.heading"),
		Main: templates.Form(templates.FormView{
			Caption:    state.invite.PreprintTitle,
			HeadingKey: "author_invite.need_to_verify.heading",
			Action:     state.url(stepNeedToVerify),
			BackURL:    state.url(stepEnterEmail),
			SubmitKey:  "author_invite.need_to_verify.resend",
			Fields: []templates.Field{
				templates.Paragraph{Key: "author_invite.need_to_verify.explain", Args: []any{state.contact.Address}},
			},
		}),
	}, nil
}

func (h handlers) resend(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.next() != stepNeedToVerify {
		return response.Redirect{Location: state.url(state.next())}, nil
	}
	if err := h.m.emails.Resend(r.Context(), state.user); err != nil {
		if errors.Is(err, contactemail.ErrRateLimited) {
			return weberror.ProblemPage(r, templates.ProblemTooManyEmails, http.StatusTooManyRequests), nil
		}
		return nil, err
	}
	return response.FlashMessage{
		Location: state.url(stepNeedToVerify),
		Notice:   flash.Success(flash.VerifyContactEmailResent),
	}, nil
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
	if state.next() != stepCheck {
		return response.Redirect{Location: state.url(state.next())}, nil
	}
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "author_invite.check.heading"),
		Main: templates.Form(templates.FormView{
			Caption:    state.invite.PreprintTitle,
			HeadingKey: "author_invite.check.heading",
			Action:     state.url(stepCheck),
			SubmitKey:  "author_invite.check.submit",
			Fields: []templates.Field{templates.SummaryList{Rows: []templates.SummaryRow{
				{
					LabelKey:  "author_invite.check.published_name",
					Value:     displayName(state.user, state.invite.Persona),
					ChangeURL: state.url(stepChooseName),
				},
				{
					LabelKey:  "author_invite.check.email",
					Value:     state.contact.Address,
					ChangeURL: state.url(stepEnterEmail),
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
	if state.next() != stepCheck {
		return response.Redirect{Location: state.url(state.next())}, nil
	}
	author := zenodo.Author{Name: displayName(state.user, state.invite.Persona)}
	if state.invite.Persona == personaPublic {
		author.ORCID = string(state.user.ORCID)
	}
	ctx := r.Context()
	log := h.m.base.Log().WithField("invite_id", state.invite.ID.String())
	if err := h.m.records.AddAuthor(ctx, state.invite.ReviewID, author); err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, err)
	}
	state.invite.Status = storage.InviteCompleted
	if err := h.m.invites.SaveAuthorInvite(ctx, state.invite); err != nil {
		log.WithError(err).Error("author added but invite not marked completed")
		return nil, err
	}
	log.WithField("review_id", state.invite.ReviewID).Info("author invite completed")
	return response.Redirect{Location: state.url(stepPublished)}, nil
}

func (h handlers) published(r *http.Request) (response.Response, error) {
	invite, err := h.invite(r)
	if err != nil {
		return nil, err
	}
	user, signedIn := requestctx.UserFrom(r.Context())
	if dest := route(invite, user, signedIn); dest != toPublished {
		return h.divert(r, invite, user, dest)
	}
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "author_invite.published.heading"),
		Main: templates.Message(templates.MessageView{
			Panel:      true,
			HeadingKey: "author_invite.published.heading",
			Paragraphs: []templates.Paragraph{{Key: "author_invite.published.explain"}},
			Links:      []templates.LinkButton{{URL: routepath.Review(invite.ReviewID), LabelKey: "author_invite.published.see_review"}},
		}),
	}, nil
}

func (h handlers) declinePage(r *http.Request) (response.Response, error) {
	invite, err := h.invite(r)
	if err != nil {
		return nil, err
	}
	switch invite.Status {
	case storage.InviteOpen:
		return response.StreamlinePage{
			Title: templates.T(r.Context(), "author_invite.decline.heading"),
			Main: templates.Form(templates.FormView{
				Caption:    invite.PreprintTitle,
				HeadingKey: "author_invite.decline.heading",
				Action:     routepath.AuthorInviteDecline(invite.ID),
				SubmitKey:  "author_invite.decline.submit",
				Fields: []templates.Field{
					templates.Paragraph{Key: "author_invite.decline.explain", Args: []any{invite.InviterName, invite.PreprintTitle}},
				},
			}),
		}, nil
	case storage.InviteDeclined:
		return response.StreamlinePage{
			Title: templates.T(r.Context(), "author_invite.declined.heading"),
			Main: templates.Message(templates.MessageView{
				Panel:      true,
				HeadingKey: "author_invite.declined.heading",
				Paragraphs: []templates.Paragraph{{Key: "author_invite.declined.explain"}},
			}),
		}, nil
	default:
		return nil, apperrors.E(apperrors.KindAlreadyCompleted, "invite was already accepted")
	}
}

func (h handlers) decline(r *http.Request) (response.Response, error) {
	invite, err := h.invite(r)
	if err != nil {
		return nil, err
	}
	switch invite.Status {
	case storage.InviteOpen:
		invite.Status = storage.InviteDeclined
		if err := h.m.invites.SaveAuthorInvite(r.Context(), invite); err != nil {
			return nil, err
		}
		h.m.base.Log().WithField("invite_id", invite.ID.String()).Info("author invite declined")
	case storage.InviteDeclined:
	default:
		return nil, apperrors.E(apperrors.KindAlreadyCompleted, "invite was already accepted")
	}
	return response.Redirect{Location: routepath.AuthorInviteDecline(invite.ID)}, nil
}
