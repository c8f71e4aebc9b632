// Package reviewrequests serves the review-request listing and the JSON
// feeds Sciety reads.
package reviewrequests

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/zenodo"
)

// RequestReader exposes the current review-request read model.
type RequestReader interface {
	Snapshot() reviewrequest.State
}

// AllPrereviews lists every published PREreview.
type AllPrereviews interface {
	All(ctx context.Context) ([]zenodo.Prereview, error)
}

// Module provides the listing and the data feeds.
type Module struct {
	base       module.Base
	requests   RequestReader
	prereviews AllPrereviews
	preprints  preprint.Getter
	// feedKey guards the data feeds; the feeds are hidden while it is empty.
	feedKey string
}

// New returns a review-requests module.
func New(base module.Base, requests RequestReader, prereviews AllPrereviews, preprints preprint.Getter, feedKey string) Module {
	return Module{base: base, requests: requests, prereviews: prereviews, preprints: preprints, feedKey: feedKey}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "reviewrequests" }

// Mount wires the listing and feed handlers.
func (m Module) Mount() (module.Mount, error) {
	h := newHandlers(m)
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.ReviewRequests, Handler: m.base.Handle(h.list)},
		{Pattern: http.MethodGet + " " + routepath.RequestsData, Handler: h.requireFeedKey(http.HandlerFunc(h.requestsData))},
		{Pattern: http.MethodGet + " " + routepath.ReviewsData, Handler: h.requireFeedKey(http.HandlerFunc(h.reviewsData))},
	}}, nil
}
