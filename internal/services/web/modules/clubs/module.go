// Package clubs serves the club directory and each club's page.
package clubs

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/club"
	"github.com/prereview/prereview/internal/preprint"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/zenodo"
)

// ClubPrereviews lists the PREreviews a club published.
type ClubPrereviews interface {
	RecordsForClub(ctx context.Context, id club.ID) ([]zenodo.Prereview, error)
}

// Module provides club routes.
type Module struct {
	base       module.Base
	prereviews ClubPrereviews
	preprints  preprint.Getter
}

// New returns a clubs module.
func New(base module.Base, prereviews ClubPrereviews, preprints preprint.Getter) Module {
	return Module{base: base, prereviews: prereviews, preprints: preprints}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "clubs" }

// Mount wires club route handlers.
func (m Module) Mount() (module.Mount, error) {
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.Clubs, Handler: m.base.Handle(m.directory)},
		{Pattern: http.MethodGet + " " + routepath.Clubs + "/{id}", Handler: m.base.Handle(m.club)},
	}}, nil
}
