// Package reviews serves the PREreview listing, single PREreviews and the
// page of each preprint.
package reviews

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/zenodo"
)

// Prereviews reads published PREreviews.
type Prereviews interface {
	Search(ctx context.Context, query zenodo.Query) (zenodo.Results, error)
	GetRecord(ctx context.Context, id int) (zenodo.Prereview, error)
	RecordsForPreprint(ctx context.Context, doi string) ([]zenodo.Prereview, error)
}

// RequestReader exposes the current review-request read model.
type RequestReader interface {
	Snapshot() reviewrequest.State
}

// Module provides the review and preprint pages.
type Module struct {
	base       module.Base
	prereviews Prereviews
	preprints  preprint.Getter
	requests   RequestReader
}

// New returns a reviews module.
func New(base module.Base, prereviews Prereviews, preprints preprint.Getter, requests RequestReader) Module {
	return Module{base: base, prereviews: prereviews, preprints: preprints, requests: requests}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "reviews" }

// Mount wires the review route handlers.
func (m Module) Mount() (module.Mount, error) {
	h := newHandlers(m)
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.Reviews, Handler: m.base.Handle(h.list)},
		{Pattern: http.MethodGet + " " + routepath.Reviews + "/{id}", Handler: m.base.Handle(h.review)},
		{Pattern: http.MethodGet + " " + routepath.PreprintPrefix + "{preprintID}", Handler: m.base.Handle(h.preprint)},
	}}, nil
}
