package mydetails

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/services/web/platform/contactemail"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/flash"
	"github.com/prereview/prereview/internal/services/web/platform/forms"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/services/web/templates"
)

const visibilityField = "visibility"

type emailInput struct {
	Email string `form:"emailAddress" validate:"required,email,max=254"`
}

type handlers struct {
	m Module
}

func currentUser(r *http.Request) (requestctx.User, error) {
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return requestctx.User{}, apperrors.E(apperrors.KindNoSession, "sign in required")
	}
	return user, nil
}

func (h handlers) show(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	details, err := h.m.details.Details(ctx, user.ORCID)
	if err != nil {
		return nil, err
	}
	contact, hasContact, err := h.m.emails.Current(ctx, user.ORCID)
	if err != nil {
		return nil, err
	}

	view := templates.MyDetailsView{
		Name:       user.Name,
		ORCID:      user.ORCID.String(),
		ORCIDURL:   user.ORCID.URL(),
		ProfileURL: routepath.Profile(user.ORCID),
		SlackURL:   routepath.ConnectSlack,
	}
	emailRow := templates.DetailRow{LabelKey: "my_details.email", ChangeURL: routepath.ChangeEmail}
	if hasContact {
		emailRow.Value = contact.Address
		emailRow.VisibilityKey = "my_details.email_verified"
		if !contact.Verified {
			emailRow.VisibilityKey = "my_details.email_unverified"
		}
	}
	view.Rows = append(view.Rows, emailRow)
	for _, page := range detailPages {
		detail := *page.get(&details)
		row := templates.DetailRow{LabelKey: page.key + ".title", ChangeURL: page.path}
		if detail.Value != "" {
			if page.valueKey != nil {
				row.ValueKey = page.valueKey(detail.Value)
			} else {
				row.Value = detail.Value
			}
			row.VisibilityKey = "my_details.visibility." + string(visibilityOf(detail))
		}
		view.Rows = append(view.Rows, row)
	}

	if h.m.slack != nil {
		slackUser, err := h.m.slack.SlackUser(ctx, user.ORCID)
		switch {
		case err == nil:
			view.SlackName = slackUser.Name
		case !errors.Is(err, storage.ErrNotFound):
			h.m.base.Log().WithError(err).Warn("load slack user")
		}
	}

	return response.Page{
		Title: templates.T(ctx, "my_details.heading"),
		Main:  templates.MyDetails(view),
		Nav:   templates.NavMyDetails,
	}, nil
}

func visibilityOf(detail storage.Detail) storage.Visibility {
	if detail.Visibility == storage.VisibilityPublic {
		return storage.VisibilityPublic
	}
	return storage.VisibilityRestricted
}

func (h handlers) changeEmail(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	contact, _, err := h.m.emails.Current(r.Context(), user.ORCID)
	if err != nil {
		return nil, err
	}
	return changeEmailPage(r, contact.Address, "", http.StatusOK), nil
}

func changeEmailPage(r *http.Request, value, errKey string, status int) response.Response {
	view := templates.FormView{
		HeadingKey: "my_details.change_email.heading",
		Action:     routepath.ChangeEmail,
		BackURL:    routepath.MyDetails,
		SubmitKey:  "form.save_and_continue",
		Fields: []templates.Field{templates.TextInput{
			Name:         "emailAddress",
			Type:         "email",
			LabelKey:     "my_details.change_email.label",
			HintKey:      "my_details.change_email.hint",
			Value:        value,
			Autocomplete: "email",
			Error:        errKey,
		}},
	}
	if errKey != "" {
		view.Errors = []templates.FieldError{{Field: "emailAddress", Key: errKey}}
	}
	return response.StreamlinePage{
		Title:  templates.T(r.Context(), "my_details.change_email.heading"),
		Status: status,
		Main:   templates.Form(view),
	}
}

func (h handlers) submitChangeEmail(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	input := emailInput{Email: strings.TrimSpace(r.PostForm.Get("emailAddress"))}
	if errs := forms.Check(input); errs.Has("emailAddress") {
		return changeEmailPage(r, input.Email, "my_details.change_email.error", http.StatusBadRequest), nil
	}
	ctx := r.Context()
	if err := h.m.emails.Request(ctx, user, input.Email); err != nil {
		if errors.Is(err, contactemail.ErrRateLimited) {
			return weberror.ProblemPage(r, templates.ProblemTooManyEmails, http.StatusTooManyRequests), nil
		}
		return nil, err
	}
	contact, _, err := h.m.emails.Current(ctx, user.ORCID)
	if err != nil {
		return nil, err
	}
	if contact.Verified {
		return response.Redirect{Location: routepath.MyDetails}, nil
	}
	return response.FlashMessage{Location: routepath.MyDetails, Notice: flash.Info(flash.VerifyContactEmail)}, nil
}

func (h handlers) verifyEmail(r *http.Request) (response.Response, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return nil, apperrors.E(apperrors.KindInvalidToken, "verification token missing")
	}
	if _, err := h.m.emails.Verify(r.Context(), user, token); err != nil {
		return nil, err
	}
	h.m.base.Log().WithField("orcid", user.ORCID.String()).Info("contact email verified")
	return response.FlashMessage{Location: routepath.MyDetails, Notice: flash.Success(flash.ContactEmailVerified)}, nil
}

func (h handlers) changeDetail(page detailPage) response.HandlerFunc {
	return func(r *http.Request) (response.Response, error) {
		user, err := currentUser(r)
		if err != nil {
			return nil, err
		}
		details, err := h.m.details.Details(r.Context(), user.ORCID)
		if err != nil {
			return nil, err
		}
		detail := *page.get(&details)
		return detailForm(r, page, detail, "", "", http.StatusOK), nil
	}
}

func detailForm(r *http.Request, page detailPage, detail storage.Detail, valueErr, visibilityErr string, status int) response.Response {
	visibility := visibilityOf(detail)
	view := templates.FormView{
		HeadingKey: page.key + ".heading",
		Action:     page.path,
		BackURL:    routepath.MyDetails,
		Fields: []templates.Field{
			page.field(detail.Value, valueErr),
			templates.Radios{
				Name:      visibilityField,
				LegendKey: "my_details.visibility.legend",
				Error:     visibilityErr,
				Options: []templates.Option{
					{Value: string(storage.VisibilityPublic), LabelKey: "my_details.visibility.public", Selected: visibility == storage.VisibilityPublic},
					{Value: string(storage.VisibilityRestricted), LabelKey: "my_details.visibility.restricted", Selected: visibility == storage.VisibilityRestricted},
				},
			},
		},
	}
	if valueErr != "" {
		view.Errors = append(view.Errors, templates.FieldError{Field: valueField, Key: valueErr})
	}
	if visibilityErr != "" {
		view.Errors = append(view.Errors, templates.FieldError{Field: visibilityField, Key: visibilityErr})
	}
	return response.StreamlinePage{
		Title:  templates.T(r.Context(), page.key+".heading"),
		Status: status,
		Main:   templates.Form(view),
	}
}

func (h handlers) submitDetail(page detailPage) response.HandlerFunc {
	return func(r *http.Request) (response.Response, error) {
		user, err := currentUser(r)
		if err != nil {
			return nil, err
		}
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.Wrap(apperrors.KindInvalidInput, err)
		}
		submitted := storage.Detail{
			Value:      strings.TrimSpace(r.PostForm.Get(valueField)),
			Visibility: storage.Visibility(r.PostForm.Get(visibilityField)),
		}
		var valueErr, visibilityErr string
		if !forms.Var(submitted.Value, page.rule) {
			valueErr = page.key + ".error"
		}
		if !forms.Var(string(submitted.Visibility), "omitempty,oneof=public restricted") {
			visibilityErr = "my_details.visibility.error"
		}
		if valueErr != "" || visibilityErr != "" {
			return detailForm(r, page, submitted, valueErr, visibilityErr, http.StatusBadRequest), nil
		}
		if submitted.Visibility == "" {
			submitted.Visibility = storage.VisibilityRestricted
		}

		ctx := r.Context()
		details, err := h.m.details.Details(ctx, user.ORCID)
		if err != nil {
			return nil, err
		}
		*page.get(&details) = submitted
		if err := h.m.details.SaveDetails(ctx, user.ORCID, details); err != nil {
			return nil, err
		}
		return response.Redirect{Location: routepath.MyDetails}, nil
	}
}
