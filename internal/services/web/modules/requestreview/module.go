// Package requestreview lets a signed-in user ask the community to review a
// preprint.
package requestreview

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/flowstate"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
)

// Publisher records a new review request.
type Publisher interface {
	Publish(ctx context.Context, preprintID preprint.ID, requester reviewrequest.Requester) (uuid.UUID, error)
}

// Announcer posts a message to a Slack channel.
type Announcer interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Config carries the optional community announcement settings.
type Config struct {
	SlackChannel string
	// Origin is the public site origin used in announcement links.
	Origin string
}

// Module provides the request-a-PREreview flow.
type Module struct {
	base      module.Base
	preprints preprint.Getter
	forms     flowstate.Forms[requestForm]
	publisher Publisher
	announcer Announcer
	cfg       Config
}

// New returns a request-review module. announcer may be nil.
func New(base module.Base, preprints preprint.Getter, store flowstate.Store, publisher Publisher, announcer Announcer, cfg Config) Module {
	return Module{
		base:      base,
		preprints: preprints,
		forms:     flowstate.Forms[requestForm]{Store: store, Kind: storage.FormRequestReview},
		publisher: publisher,
		announcer: announcer,
		cfg:       cfg,
	}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "requestreview" }

// Mount wires the flow's steps.
func (m Module) Mount() (module.Mount, error) {
	h := newHandlers(m)
	step := func(name string) string {
		return routepath.PreprintPrefix + "{preprintID}" + routepath.RequestReview + name
	}
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.RequestReview, Handler: m.base.Handle(h.whichPreprint)},
		{Pattern: http.MethodPost + " " + routepath.RequestReview, Handler: m.base.Handle(h.submitWhichPreprint)},
		{Pattern: http.MethodGet + " " + step(""), Handler: m.base.Handle(h.start)},
		{Pattern: http.MethodPost + " " + step(""), Handler: m.base.Handle(h.begin)},
		{Pattern: http.MethodGet + " " + step("/"+stepChooseName), Handler: m.base.Handle(h.chooseName)},
		{Pattern: http.MethodPost + " " + step("/"+stepChooseName), Handler: m.base.Handle(h.submitChooseName)},
		{Pattern: http.MethodGet + " " + step("/"+stepCheck), Handler: m.base.Handle(h.check)},
		{Pattern: http.MethodPost + " " + step("/"+stepCheck), Handler: m.base.Handle(h.submitCheck)},
		{Pattern: http.MethodGet + " " + step("/"+stepPublished), Handler: m.base.Handle(h.published)},
	}}, nil
}
