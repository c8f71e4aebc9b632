package writereview

import (
	"errors"
	"net/http"
	"strings"

	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/prereview/prereview/internal/platform/requestctx"
	"github.com/prereview/prereview/internal/preprint"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/forms"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
)

type handlers struct {
	m Module
}

func newHandlers(m Module) handlers {
	return handlers{m: m}
}

type whichPreprintInput struct {
	Preprint string `form:"preprint" validate:"required"`
}

type choiceInput struct {
	Choice string `form:"choice" validate:"required,oneof=yes no"`
}

type reviewTypeInput struct {
	ReviewType string `form:"reviewType" validate:"required,oneof=questions freeform already-written"`
}

type personaInput struct {
	Persona string `form:"persona" validate:"required,oneof=public pseudonym"`
}

type authorInput struct {
	Name  string `form:"name" validate:"required,max=200"`
	Email string `form:"email" validate:"required,email"`
}

func (h handlers) whichPreprint(r *http.Request) (response.Response, error) {
	return whichPreprintPage(r, "", "", http.StatusOK), nil
}

func whichPreprintPage(r *http.Request, value, errKey string, status int) response.Response {
	view := templates.FormView{
		HeadingKey: "write_review.which_preprint.heading",
		Action:     routepath.WriteReview,
		SubmitKey:  "form.continue",
		Fields: []templates.Field{templates.TextInput{
			Name:     "preprint",
			LabelKey: "write_review.which_preprint.label",
			HintKey:  "write_review.which_preprint.hint",
			Value:    value,
			Error:    errKey,
		}},
	}
	if errKey != "" {
		view.Errors = []templates.FieldError{{Field: "preprint", Key: errKey}}
	}
	return response.StreamlinePage{
		Title:  templates.T(r.Context(), "write_review.which_preprint.heading"),
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
		return whichPreprintPage(r, input.Preprint, "write_review.error.preprint_missing", http.StatusBadRequest), nil
	}
	id, err := preprint.ParseIdentifier(input.Preprint)
	switch {
	case errors.Is(err, preprint.ErrUnsupported):
		return nil, err
	case err != nil:
		return whichPreprintPage(r, input.Preprint, "write_review.error.preprint_invalid", http.StatusBadRequest), nil
	}
	if _, err := h.m.preprints.Get(httpx.RequestContext(r), id); err != nil {
		if errors.Is(err, preprint.ErrNotFound) {
			return whichPreprintPage(r, input.Preprint, "write_review.error.preprint_not_found", http.StatusBadRequest), nil
		}
		return nil, err
	}
	return response.Redirect{Location: routepath.WriteReviewStep(id, "")}, nil
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
	title := htmlsanitize.PlainText(item.Title)
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "write_review.start.title", title),
		Main: templates.Form(templates.FormView{
			Caption:    title,
			HeadingKey: "write_review.start.heading",
			Action:     routepath.WriteReviewStep(id, ""),
			SubmitKey:  "form.start_now",
			Fields: []templates.Field{
				templates.Paragraph{Key: "write_review.start.explain"},
				templates.Paragraph{Key: "write_review.start.orcid"},
			},
		}),
		Canonical: routepath.WriteReviewStep(id, ""),
	}, nil
}

func (h handlers) begin(r *http.Request) (response.Response, error) {
	id, item, err := h.lookup(r)
	if err != nil {
		return nil, err
	}
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return response.LogIn{Location: routepath.WriteReviewStep(id, "")}, nil
	}
	form, found, err := h.m.forms.Load(r.Context(), user.ORCID, id.DOI)
	if err != nil {
		return nil, err
	}
	if !found {
		form = Form{PreprintTitle: htmlsanitize.PlainText(item.Title)}
		if err := h.m.forms.Save(r.Context(), user.ORCID, id.DOI, form); err != nil {
			return nil, err
		}
	}
	return response.Redirect{Location: routepath.WriteReviewStep(id, NextStep(form))}, nil
}

// flowState is what every step after the start page works on.
type flowState struct {
	id   preprint.ID
	user requestctx.User
	form Form
}

// load resolves the user and saved form of a step. A non-nil response
// sends the visitor somewhere more appropriate.
func (h handlers) load(r *http.Request) (flowState, response.Response, error) {
	id, err := preprint.ParseRouteSegment(r.PathValue("preprintID"))
	if err != nil {
		return flowState{}, nil, err
	}
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return flowState{}, response.LogIn{Location: routepath.WriteReviewStep(id, "")}, nil
	}
	form, found, err := h.m.forms.Load(r.Context(), user.ORCID, id.DOI)
	if err != nil {
		return flowState{}, nil, err
	}
	if !found {
		return flowState{}, response.Redirect{Location: routepath.WriteReviewStep(id, "")}, nil
	}
	return flowState{id: id, user: user, form: form}, nil, nil
}

// advance saves the form and moves to the next unanswered step.
func (h handlers) advance(r *http.Request, state flowState) (response.Response, error) {
	if err := h.m.forms.Save(r.Context(), state.user.ORCID, state.id.DOI, state.form); err != nil {
		return nil, err
	}
	return response.Redirect{Location: routepath.WriteReviewStep(state.id, NextStep(state.form))}, nil
}

func (h handlers) parse(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(apperrors.KindInvalidInput, err)
	}
	return nil
}

// stepPage renders a question page of the flow.
func stepPage(r *http.Request, state flowState, step string, view templates.FormView, status int) response.Response {
	view.Caption = state.form.PreprintTitle
	view.Action = routepath.WriteReviewStep(state.id, step)
	for _, field := range view.Fields {
		if key := fieldErrorKey(field); key != "" {
			view.Errors = append(view.Errors, templates.FieldError{Field: fieldName(field), Key: key})
		}
	}
	title := view.Heading
	if view.HeadingKey != "" {
		title = templates.T(r.Context(), view.HeadingKey)
	}
	return response.StreamlinePage{Title: title, Status: status, Main: templates.Form(view)}
}

func fieldErrorKey(field templates.Field) string {
	switch f := field.(type) {
	case templates.Radios:
		return f.Error
	case templates.TextInput:
		return f.Error
	case templates.TextArea:
		return f.Error
	case templates.Checkbox:
		return f.Error
	}
	return ""
}

func fieldName(field templates.Field) string {
	switch f := field.(type) {
	case templates.Radios:
		return f.Name
	case templates.TextInput:
		return f.Name
	case templates.TextArea:
		return f.Name
	case templates.Checkbox:
		return f.Name
	}
	return ""
}

func statusFor(errKey string) int {
	if errKey != "" {
		return http.StatusBadRequest
	}
	return http.StatusOK
}

func yesNo(selected string) []templates.Option {
	return []templates.Option{
		{Value: "yes", LabelKey: "answer.yes", Selected: selected == "yes"},
		{Value: "no", LabelKey: "answer.no", Selected: selected == "no"},
	}
}

func (h handlers) reviewType(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return reviewTypePage(r, state, state.form.ReviewType, ""), nil
}

func reviewTypePage(r *http.Request, state flowState, selected, errKey string) response.Response {
	options := make([]templates.Option, 0, 3)
	for _, value := range []string{TypeQuestions, TypeFreeform, TypeAlreadyWritten} {
		options = append(options, templates.Option{
			Value:    value,
			LabelKey: "write_review.review_type." + value,
			Selected: value == selected,
		})
	}
	return stepPage(r, state, StepReviewType, templates.FormView{
		HeadingKey: "write_review.review_type.heading",
		BackURL:    routepath.WriteReviewStep(state.id, ""),
		Fields:     []templates.Field{templates.Radios{Name: "reviewType", Options: options, Error: errKey}},
	}, statusFor(errKey))
}

func (h handlers) submitReviewType(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	input := reviewTypeInput{ReviewType: r.PostForm.Get("reviewType")}
	if errs := forms.Check(input); errs.Has("reviewType") {
		return reviewTypePage(r, state, "", "write_review.error.review_type_missing"), nil
	}
	state.form.ReviewType = input.ReviewType
	return h.advance(r, state)
}

func (h handlers) writeReview(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.form.ReviewType == "" || state.form.ReviewType == TypeQuestions {
		return response.Redirect{Location: routepath.WriteReviewStep(state.id, NextStep(state.form))}, nil
	}
	return writeReviewPage(r, state, state.form.Review, ""), nil
}

func writeReviewPage(r *http.Request, state flowState, value, errKey string) response.Response {
	heading := "write_review.write.heading"
	hint := "write_review.write.hint"
	if state.form.ReviewType == TypeAlreadyWritten {
		heading = "write_review.write.heading_already_written"
		hint = "write_review.write.hint_already_written"
	}
	return stepPage(r, state, StepWriteReview, templates.FormView{
		HeadingKey: heading,
		BackURL:    routepath.WriteReviewStep(state.id, StepReviewType),
		Fields: []templates.Field{templates.TextArea{
			Name:     "review",
			LabelKey: "write_review.write.label",
			HintKey:  hint,
			Value:    value,
			Rows:     20,
			Error:    errKey,
		}},
	}, statusFor(errKey))
}

func (h handlers) submitWriteReview(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	text := reviewHTML(r.PostForm.Get("review"))
	if htmlsanitize.PlainText(text) == "" {
		return writeReviewPage(r, state, "", "write_review.error.review_missing"), nil
	}
	state.form.Review = text
	return h.advance(r, state)
}

func (h handlers) reviewQuestions(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if state.form.ReviewType != TypeQuestions {
		return response.Redirect{Location: routepath.WriteReviewStep(state.id, NextStep(state.form))}, nil
	}
	return questionsPage(r, state, state.form.Answers, nil), nil
}

func questionsPage(r *http.Request, state flowState, answers map[string]string, missing map[string]bool) response.Response {
	fields := make([]templates.Field, 0, len(questions))
	for _, q := range questions {
		options := make([]templates.Option, 0, len(q.Options))
		for _, value := range q.Options {
			options = append(options, templates.Option{
				Value:    value,
				LabelKey: "answer." + value,
				Selected: answers[q.ID] == value,
			})
		}
		radios := templates.Radios{Name: q.ID, LegendKey: "questions." + q.ID, Options: options}
		if missing[q.ID] {
			radios.Error = "write_review.error.question_missing"
		}
		fields = append(fields, radios)
	}
	status := http.StatusOK
	if len(missing) > 0 {
		status = http.StatusBadRequest
	}
	return stepPage(r, state, StepReviewQuestions, templates.FormView{
		HeadingKey: "write_review.questions.heading",
		BackURL:    routepath.WriteReviewStep(state.id, StepReviewType),
		Fields:     fields,
	}, status)
}

func (h handlers) submitReviewQuestions(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	answers := make(map[string]string, len(questions))
	missing := map[string]bool{}
	for _, q := range questions {
		value := r.PostForm.Get(q.ID)
		if !forms.Var(value, "oneof="+strings.Join(q.Options, " ")) || value == "" {
			missing[q.ID] = true
			continue
		}
		answers[q.ID] = value
	}
	if len(missing) > 0 {
		return questionsPage(r, state, answers, missing), nil
	}
	state.form.Answers = answers
	return h.advance(r, state)
}

func (h handlers) chooseName(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return chooseNamePage(r, state, state.form.Persona, ""), nil
}

func chooseNamePage(r *http.Request, state flowState, selected, errKey string) response.Response {
	return stepPage(r, state, StepChooseName, templates.FormView{
		HeadingKey: "choose_name.heading",
		Fields: []templates.Field{templates.Radios{
			Name:    "persona",
			HintKey: "choose_name.hint",
			Error:   errKey,
			Options: []templates.Option{
				{Value: personaPublic, Label: state.user.Name, Selected: selected == personaPublic},
				{Value: personaPseudonym, Label: state.user.Pseudonym, Selected: selected == personaPseudonym},
			},
		}},
	}, statusFor(errKey))
}

func (h handlers) submitChooseName(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	input := personaInput{Persona: r.PostForm.Get("persona")}
	if errs := forms.Check(input); errs.Has("persona") {
		return chooseNamePage(r, state, "", "choose_name.error.missing"), nil
	}
	state.form.Persona = input.Persona
	return h.advance(r, state)
}

func (h handlers) addAuthors(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return addAuthorsPage(r, state, ""), nil
}

func addAuthorsPage(r *http.Request, state flowState, errKey string) response.Response {
	if len(state.form.OtherAuthors) == 0 {
		return stepPage(r, state, StepAddAuthors, templates.FormView{
			HeadingKey: "write_review.add_authors.heading",
			Fields: []templates.Field{templates.Radios{
				Name:    "choice",
				HintKey: "write_review.add_authors.hint",
				Options: yesNo(state.form.MoreAuthors),
				Error:   errKey,
			}},
		}, statusFor(errKey))
	}
	rows := make([]templates.SummaryRow, 0, len(state.form.OtherAuthors))
	for _, author := range state.form.OtherAuthors {
		rows = append(rows, templates.SummaryRow{LabelKey: "write_review.add_authors.author", Value: author.Name + " (" + author.Email + ")"})
	}
	return stepPage(r, state, StepAddAuthors, templates.FormView{
		HeadingKey: "write_review.add_authors.added_heading",
		Fields: []templates.Field{
			templates.SummaryList{Rows: rows},
			templates.Radios{
				Name:      "choice",
				LegendKey: "write_review.add_authors.another",
				Options:   yesNo(""),
				Error:     errKey,
			},
		},
	}, statusFor(errKey))
}

func (h handlers) submitAddAuthors(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	input := choiceInput{Choice: r.PostForm.Get("choice")}
	if errs := forms.Check(input); errs.Has("choice") {
		return addAuthorsPage(r, state, "write_review.error.choice_missing"), nil
	}
	if input.Choice == "yes" {
		state.form.MoreAuthors = "yes"
		state.form.AuthorsDone = false
		if err := h.m.forms.Save(r.Context(), state.user.ORCID, state.id.DOI, state.form); err != nil {
			return nil, err
		}
		return response.Redirect{Location: routepath.WriteReviewStep(state.id, StepAddAuthor)}, nil
	}
	if len(state.form.OtherAuthors) == 0 {
		state.form.MoreAuthors = "no"
	} else {
		state.form.AuthorsDone = true
	}
	return h.advance(r, state)
}

func (h handlers) addAuthor(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return addAuthorPage(r, state, authorInput{}, nil), nil
}

func addAuthorPage(r *http.Request, state flowState, input authorInput, errs map[string]string) response.Response {
	return stepPage(r, state, StepAddAuthor, templates.FormView{
		HeadingKey: "write_review.add_author.heading",
		BackURL:    routepath.WriteReviewStep(state.id, StepAddAuthors),
		Fields: []templates.Field{
			templates.TextInput{Name: "name", LabelKey: "write_review.add_author.name", Value: input.Name, Error: errs["name"]},
			templates.TextInput{Name: "email", Type: "email", LabelKey: "write_review.add_author.email", Value: input.Email, Autocomplete: "off", Error: errs["email"]},
		},
	}, statusFor(errs["name"]+errs["email"]))
}

func (h handlers) submitAddAuthor(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	input := authorInput{
		Name:  strings.TrimSpace(r.PostForm.Get("name")),
		Email: strings.TrimSpace(r.PostForm.Get("email")),
	}
	errs := map[string]string{}
	if check := forms.Check(input); check != nil {
		if check.Has("name") {
			errs["name"] = "write_review.error.author_name_missing"
		}
		if check.Has("email") {
			errs["email"] = "write_review.error.author_email_invalid"
		}
	}
	for _, author := range state.form.OtherAuthors {
		if strings.EqualFold(author.Email, input.Email) {
			errs["email"] = "write_review.error.author_duplicate"
		}
	}
	if len(errs) > 0 {
		return addAuthorPage(r, state, input, errs), nil
	}
	state.form.MoreAuthors = "yes"
	state.form.AuthorsDone = false
	state.form.OtherAuthors = append(state.form.OtherAuthors, OtherAuthor{Name: input.Name, Email: input.Email})
	if err := h.m.forms.Save(r.Context(), state.user.ORCID, state.id.DOI, state.form); err != nil {
		return nil, err
	}
	return response.Redirect{Location: routepath.WriteReviewStep(state.id, StepAddAuthors)}, nil
}

func (h handlers) declareUseOfAI(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return useOfAIPage(r, state, state.form.GenerativeAI, ""), nil
}

func useOfAIPage(r *http.Request, state flowState, selected, errKey string) response.Response {
	return stepPage(r, state, StepDeclareUseOfAI, templates.FormView{
		HeadingKey: "write_review.use_of_ai.heading",
		Fields: []templates.Field{templates.Radios{
			Name:    "choice",
			HintKey: "write_review.use_of_ai.hint",
			Options: yesNo(selected),
			Error:   errKey,
		}},
	}, statusFor(errKey))
}

func (h handlers) submitDeclareUseOfAI(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	input := choiceInput{Choice: r.PostForm.Get("choice")}
	if errs := forms.Check(input); errs.Has("choice") {
		return useOfAIPage(r, state, "", "write_review.error.choice_missing"), nil
	}
	state.form.GenerativeAI = input.Choice
	return h.advance(r, state)
}

func (h handlers) competingInterests(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return competingInterestsPage(r, state, state.form.CompetingInterests, state.form.CompetingInterestsDetails, "", ""), nil
}

func competingInterestsPage(r *http.Request, state flowState, selected, details, choiceErr, detailsErr string) response.Response {
	return stepPage(r, state, StepCompetingInterests, templates.FormView{
		HeadingKey: "write_review.competing_interests.heading",
		Fields: []templates.Field{
			templates.Radios{
				Name:    "choice",
				HintKey: "write_review.competing_interests.hint",
				Options: yesNo(selected),
				Error:   choiceErr,
			},
			templates.TextArea{
				Name:     "details",
				LabelKey: "write_review.competing_interests.details",
				Value:    details,
				Rows:     4,
				Error:    detailsErr,
			},
		},
	}, statusFor(choiceErr+detailsErr))
}

func (h handlers) submitCompetingInterests(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	input := choiceInput{Choice: r.PostForm.Get("choice")}
	details := strings.TrimSpace(r.PostForm.Get("details"))
	if errs := forms.Check(input); errs.Has("choice") {
		return competingInterestsPage(r, state, "", details, "write_review.error.choice_missing", ""), nil
	}
	if input.Choice == "yes" && details == "" {
		return competingInterestsPage(r, state, input.Choice, "", "", "write_review.error.competing_interests_details"), nil
	}
	state.form.CompetingInterests = input.Choice
	state.form.CompetingInterestsDetails = ""
	if input.Choice == "yes" {
		state.form.CompetingInterestsDetails = details
	}
	return h.advance(r, state)
}

func (h handlers) codeOfConduct(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	return codeOfConductPage(r, state, state.form.ConductAgreed, ""), nil
}

func codeOfConductPage(r *http.Request, state flowState, checked bool, errKey string) response.Response {
	return stepPage(r, state, StepCodeOfConduct, templates.FormView{
		HeadingKey: "write_review.code_of_conduct.heading",
		Fields: []templates.Field{
			templates.Paragraph{Key: "write_review.code_of_conduct.summary"},
			templates.Checkbox{Name: "conduct", Value: "agree", LabelKey: "write_review.code_of_conduct.agree", Checked: checked, Error: errKey},
		},
	}, statusFor(errKey))
}

func (h handlers) submitCodeOfConduct(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if err := h.parse(r); err != nil {
		return nil, err
	}
	if r.PostForm.Get("conduct") != "agree" {
		return codeOfConductPage(r, state, false, "write_review.error.conduct_missing"), nil
	}
	state.form.ConductAgreed = true
	return h.advance(r, state)
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
	if next := NextStep(state.form); next != StepCheck {
		return response.Redirect{Location: routepath.WriteReviewStep(state.id, next)}, nil
	}
	ctx := r.Context()
	step := func(name string) string { return routepath.WriteReviewStep(state.id, name) }
	reviewStep := StepWriteReview
	reviewHTMLValue := state.form.Review
	if state.form.ReviewType == TypeQuestions {
		reviewStep = StepReviewQuestions
		reviewHTMLValue = structuredHTML(state.form.Answers)
	}
	authors := templates.T(ctx, "write_review.check.no_other_authors")
	if len(state.form.OtherAuthors) > 0 {
		names := make([]string, 0, len(state.form.OtherAuthors))
		for _, author := range state.form.OtherAuthors {
			names = append(names, author.Name)
		}
		authors = strings.Join(names, ", ")
	}
	competing := templates.T(ctx, "answer.no")
	if state.form.CompetingInterests == "yes" {
		competing = state.form.CompetingInterestsDetails
	}
	return stepPage(r, state, StepCheck, templates.FormView{
		HeadingKey: "write_review.check.heading",
		SubmitKey:  "write_review.check.submit",
		Fields: []templates.Field{templates.SummaryList{Rows: []templates.SummaryRow{
			{LabelKey: "write_review.check.published_name", Value: displayName(state.user, state.form.Persona), ChangeURL: step(StepChooseName)},
			{LabelKey: "write_review.check.other_authors", Value: authors, ChangeURL: step(StepAddAuthors)},
			{LabelKey: "write_review.check.use_of_ai", Value: templates.T(ctx, "answer."+state.form.GenerativeAI), ChangeURL: step(StepDeclareUseOfAI)},
			{LabelKey: "write_review.check.competing_interests", Value: competing, ChangeURL: step(StepCompetingInterests)},
			{LabelKey: "write_review.check.review", ValueHTML: htmlsanitize.Sanitize(reviewHTMLValue), ChangeURL: step(reviewStep)},
		}}},
	}, http.StatusOK), nil
}

func (h handlers) submitCheck(r *http.Request) (response.Response, error) {
	state, resp, err := h.load(r)
	if resp != nil || err != nil {
		return resp, err
	}
	if next := NextStep(state.form); next != StepCheck {
		return response.Redirect{Location: routepath.WriteReviewStep(state.id, next)}, nil
	}
	result, err := h.publish(r, state)
	if err != nil {
		return nil, err
	}
	ctx := r.Context()
	if err := h.m.published.Save(ctx, state.user.ORCID, state.id.DOI, result); err != nil {
		return nil, err
	}
	if err := h.m.forms.Delete(ctx, state.user.ORCID, state.id.DOI); err != nil {
		h.m.base.Log().WithError(err).WithField("doi", state.id.DOI).Warn("delete published review form")
	}
	return response.Redirect{Location: routepath.WriteReviewStep(state.id, StepPublished)}, nil
}

func (h handlers) published(r *http.Request) (response.Response, error) {
	id, err := preprint.ParseRouteSegment(r.PathValue("preprintID"))
	if err != nil {
		return nil, err
	}
	user, ok := requestctx.UserFrom(r.Context())
	if !ok {
		return response.LogIn{Location: routepath.WriteReviewStep(id, StepPublished)}, nil
	}
	result, found, err := h.m.published.Load(r.Context(), user.ORCID, id.DOI)
	if err != nil {
		return nil, err
	}
	if !found {
		return response.Redirect{Location: routepath.WriteReviewStep(id, "")}, nil
	}
	paragraphs := []templates.Paragraph{{Key: "write_review.published.doi", Args: []any{"https://doi.org/" + result.DOI}}}
	if result.Invited > 0 {
		paragraphs = append(paragraphs, templates.Paragraph{Key: "write_review.published.invited", Args: []any{result.Invited}})
	}
	paragraphs = append(paragraphs, templates.Paragraph{Key: "write_review.published.slack"})
	return response.StreamlinePage{
		Title: templates.T(r.Context(), "write_review.published.heading"),
		Main: templates.Message(templates.MessageView{
			Panel:      true,
			HeadingKey: "write_review.published.heading",
			Detail:     result.DOI,
			Paragraphs: paragraphs,
			Links:      []templates.LinkButton{{URL: routepath.Review(result.ReviewID), LabelKey: "write_review.published.see_review"}},
		}),
	}, nil
}
