// Package writereview walks a signed-in user through writing and publishing
// a PREreview.
package writereview

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/email"
	"github.com/prereview/prereview/internal/preprint"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/flowstate"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/zenodo"
)

// Depositor publishes a review as a Zenodo record.
type Depositor interface {
	Publish(ctx context.Context, review zenodo.NewPrereview) (zenodo.Published, error)
}

// InviteStore keeps the author invites created on publishing.
type InviteStore interface {
	SaveAuthorInvite(ctx context.Context, invite storage.AuthorInvite) error
}

// Announcer posts a message to a Slack channel.
type Announcer interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Config carries settings used when publishing.
type Config struct {
	SlackChannel string
	// Origin is the public site origin used in emailed and announced links.
	Origin string
}

// publishedReview is kept for the confirmation page.
type publishedReview struct {
	ReviewID int    `json:"reviewId"`
	DOI      string `json:"doi"`
	Invited  int    `json:"invited"`
}

// Module provides the write-a-PREreview flow.
type Module struct {
	base      module.Base
	preprints preprint.Getter
	forms     flowstate.Forms[Form]
	published flowstate.Forms[publishedReview]
	depositor Depositor
	invites   InviteStore
	mailer    email.Sender
	announcer Announcer
	cfg       Config
}

// Deps groups the collaborators of the flow. Announcer may be nil.
type Deps struct {
	Preprints preprint.Getter
	Forms     flowstate.Store
	Depositor Depositor
	Invites   InviteStore
	Mailer    email.Sender
	Announcer Announcer
}

// New returns a write-review module.
func New(base module.Base, deps Deps, cfg Config) Module {
	return Module{
		base:      base,
		preprints: deps.Preprints,
		forms:     flowstate.Forms[Form]{Store: deps.Forms, Kind: storage.FormWriteReview},
		published: flowstate.Forms[publishedReview]{Store: deps.Forms, Kind: storage.FormReviewPublished},
		depositor: deps.Depositor,
		invites:   deps.Invites,
		mailer:    deps.Mailer,
		announcer: deps.Announcer,
		cfg:       cfg,
	}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "writereview" }

// Mount wires every step of the flow.
func (m Module) Mount() (module.Mount, error) {
	h := newHandlers(m)
	base := routepath.PreprintPrefix + "{preprintID}" + routepath.WriteReview
	get := func(step string, fn response.HandlerFunc) module.Route {
		return module.Route{Pattern: http.MethodGet + " " + base + "/" + step, Handler: m.base.Handle(fn)}
	}
	post := func(step string, fn response.HandlerFunc) module.Route {
		return module.Route{Pattern: http.MethodPost + " " + base + "/" + step, Handler: m.base.Handle(fn)}
	}
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.WriteReview, Handler: m.base.Handle(h.whichPreprint)},
		{Pattern: http.MethodPost + " " + routepath.WriteReview, Handler: m.base.Handle(h.submitWhichPreprint)},
		{Pattern: http.MethodGet + " " + base, Handler: m.base.Handle(h.start)},
		{Pattern: http.MethodPost + " " + base, Handler: m.base.Handle(h.begin)},
		get(StepReviewType, h.reviewType),
		post(StepReviewType, h.submitReviewType),
		get(StepWriteReview, h.writeReview),
		post(StepWriteReview, h.submitWriteReview),
		get(StepReviewQuestions, h.reviewQuestions),
		post(StepReviewQuestions, h.submitReviewQuestions),
		get(StepChooseName, h.chooseName),
		post(StepChooseName, h.submitChooseName),
		get(StepAddAuthors, h.addAuthors),
		post(StepAddAuthors, h.submitAddAuthors),
		get(StepAddAuthor, h.addAuthor),
		post(StepAddAuthor, h.submitAddAuthor),
		get(StepDeclareUseOfAI, h.declareUseOfAI),
		post(StepDeclareUseOfAI, h.submitDeclareUseOfAI),
		get(StepCompetingInterests, h.competingInterests),
		post(StepCompetingInterests, h.submitCompetingInterests),
		get(StepCodeOfConduct, h.codeOfConduct),
		post(StepCodeOfConduct, h.submitCodeOfConduct),
		get(StepCheck, h.check),
		post(StepCheck, h.submitCheck),
		get(StepPublished, h.published),
	}}, nil
}
