package writereview

import (
	"context"
	"html"
	"slices"
	"strings"

	"github.com/prereview/prereview/internal/platform/htmlsanitize"
	"github.com/prereview/prereview/internal/services/web/templates"
)

// Step names, also used as URL segments.
const (
	StepReviewType         = "review-type"
	StepWriteReview        = "write-your-prereview"
	StepReviewQuestions    = "review-questions"
	StepChooseName         = "choose-name"
	StepAddAuthors         = "add-authors"
	StepAddAuthor          = "add-author"
	StepDeclareUseOfAI     = "declare-use-of-ai"
	StepCompetingInterests = "competing-interests"
	StepCodeOfConduct      = "code-of-conduct"
	StepCheck              = "check-your-prereview"
	StepPublished          = "prereview-published"
)

// Review types.
const (
	TypeQuestions      = "questions"
	TypeFreeform       = "freeform"
	TypeAlreadyWritten = "already-written"
)

const (
	personaPublic    = "public"
	personaPseudonym = "pseudonym"
)

// OtherAuthor is someone invited to be listed once the review is published.
type OtherAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Form is everything the flow has gathered for one preprint.
type Form struct {
	PreprintTitle             string            `json:"preprintTitle"`
	ReviewType                string            `json:"reviewType,omitempty"`
	Review                    string            `json:"review,omitempty"`
	Answers                   map[string]string `json:"answers,omitempty"`
	Persona                   string            `json:"persona,omitempty"`
	MoreAuthors               string            `json:"moreAuthors,omitempty"`
	OtherAuthors              []OtherAuthor     `json:"otherAuthors,omitempty"`
	AuthorsDone               bool              `json:"authorsDone,omitempty"`
	GenerativeAI              string            `json:"generativeAi,omitempty"`
	CompetingInterests        string            `json:"competingInterests,omitempty"`
	CompetingInterestsDetails string            `json:"competingInterestsDetails,omitempty"`
	ConductAgreed             bool              `json:"conductAgreed,omitempty"`
}

// NextStep returns the first step that still needs an answer, or the check
// page once every answer is in.
func NextStep(form Form) string {
	switch {
	case form.ReviewType == "":
		return StepReviewType
	case form.ReviewType == TypeQuestions && !questionsAnswered(form.Answers):
		return StepReviewQuestions
	case form.ReviewType != TypeQuestions && strings.TrimSpace(form.Review) == "":
		return StepWriteReview
	case form.Persona == "":
		return StepChooseName
	case form.MoreAuthors == "":
		return StepAddAuthors
	case form.MoreAuthors == "yes" && len(form.OtherAuthors) == 0:
		return StepAddAuthor
	case form.MoreAuthors == "yes" && !form.AuthorsDone:
		return StepAddAuthors
	case form.GenerativeAI == "":
		return StepDeclareUseOfAI
	case form.CompetingInterests == "",
		form.CompetingInterests == "yes" && strings.TrimSpace(form.CompetingInterestsDetails) == "":
		return StepCompetingInterests
	case !form.ConductAgreed:
		return StepCodeOfConduct
	default:
		return StepCheck
	}
}

// question is one prompt of the structured review.
type question struct {
	ID      string
	Options []string
}

var questions = []question{
	{ID: "introduction-matches", Options: []string{"yes", "partly", "no", "skip"}},
	{ID: "methods-appropriate", Options: []string{"highly-appropriate", "somewhat-appropriate", "somewhat-inappropriate", "highly-inappropriate", "skip"}},
	{ID: "results-supported", Options: []string{"strongly-supported", "somewhat-supported", "not-supported", "skip"}},
	{ID: "findings-next-steps", Options: []string{"clearly", "partly", "not-clearly", "skip"}},
	{ID: "novel", Options: []string{"highly", "substantial", "some", "no", "skip"}},
	{ID: "should-read", Options: []string{"yes", "yes-but-improved", "no", "skip"}},
	{ID: "ready-full-review", Options: []string{"yes", "yes-changes", "no", "skip"}},
}

func questionsAnswered(answers map[string]string) bool {
	for _, q := range questions {
		if !slices.Contains(q.Options, answers[q.ID]) {
			return false
		}
	}
	return true
}

// reviewHTML turns submitted review text into publishable HTML. Text
// without markup becomes paragraphs.
func reviewHTML(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	if strings.Contains(input, "<") {
		return htmlsanitize.Sanitize(input)
	}
	var b strings.Builder
	for _, paragraph := range strings.Split(strings.ReplaceAll(input, "\r\n", "\n"), "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(paragraph), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// structuredHTML renders the question answers in English for publishing.
func structuredHTML(answers map[string]string) string {
	ctx := context.Background()
	var b strings.Builder
	b.WriteString("<dl>")
	for _, q := range questions {
		answer := answers[q.ID]
		if answer == "" || answer == "skip" {
			continue
		}
		b.WriteString("<dt>")
		b.WriteString(html.EscapeString(templates.T(ctx, "questions."+q.ID)))
		b.WriteString("</dt><dd>")
		b.WriteString(html.EscapeString(templates.T(ctx, "answer."+answer)))
		b.WriteString("</dd>")
	}
	b.WriteString("</dl>")
	return b.String()
}

// publishableText is the HTML deposited for the form.
func publishableText(form Form) string {
	var body string
	if form.ReviewType == TypeQuestions {
		body = structuredHTML(form.Answers)
	} else {
		body = reviewHTML(form.Review)
	}
	ctx := context.Background()
	var b strings.Builder
	b.WriteString(body)
	if form.GenerativeAI == "yes" {
		b.WriteString("<h2>" + html.EscapeString(templates.T(ctx, "publish.use_of_ai")) + "</h2>")
		b.WriteString("<p>" + html.EscapeString(templates.T(ctx, "publish.used_ai")) + "</p>")
	}
	b.WriteString("<h2>" + html.EscapeString(templates.T(ctx, "publish.competing_interests")) + "</h2>")
	if form.CompetingInterests == "yes" {
		b.WriteString("<p>" + html.EscapeString(strings.TrimSpace(form.CompetingInterestsDetails)) + "</p>")
	} else {
		b.WriteString("<p>" + html.EscapeString(templates.T(ctx, "publish.no_competing_interests")) + "</p>")
	}
	return b.String()
}
