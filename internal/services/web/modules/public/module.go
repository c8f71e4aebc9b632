// Package public serves the home page, the health check and static assets.
package public

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/static"
	"github.com/prereview/prereview/internal/zenodo"
)

// PrereviewReader lists the most recent PREreviews.
type PrereviewReader interface {
	Recent(ctx context.Context) ([]zenodo.Prereview, error)
}

// RequestReader exposes the current review-request read model.
type RequestReader interface {
	Snapshot() reviewrequest.State
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Module provides the public landing routes.
type Module struct {
	base       module.Base
	prereviews PrereviewReader
	requests   RequestReader
	preprints  preprint.Getter
	checks     map[string]HealthCheck
}

// New returns a public module. checks are run by the health endpoint.
func New(base module.Base, prereviews PrereviewReader, requests RequestReader, preprints preprint.Getter, checks map[string]HealthCheck) Module {
	return Module{base: base, prereviews: prereviews, requests: requests, preprints: preprints, checks: checks}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "public" }

// Mount wires the public route handlers.
func (m Module) Mount() (module.Mount, error) {
	h := newHandlers(m)
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.Home + "{$}", Handler: m.base.Handle(h.home)},
		{Pattern: http.MethodGet + " " + routepath.Health, Handler: http.HandlerFunc(h.health)},
		{Pattern: http.MethodGet + " " + routepath.Static, Handler: http.StripPrefix("/static", http.FileServerFS(static.FS))},
	}}, nil
}
