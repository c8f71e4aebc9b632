// Package profiles serves the public profile of a reviewer, either by ORCID
// iD or by pseudonym.
package profiles

import (
	"context"
	"net/http"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/preprint"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/zenodo"
)

// Prereviews lists PREreviews by author.
type Prereviews interface {
	RecordsByORCID(ctx context.Context, orcidID string) ([]zenodo.Prereview, error)
	RecordsByPseudonym(ctx context.Context, pseudonym string) ([]zenodo.Prereview, error)
}

// People reads public names from ORCID.
type People interface {
	PersonalDetails(ctx context.Context, id orcid.ID) (orcid.Details, error)
}

// Store reads what users have chosen to share.
type Store interface {
	UserByPseudonym(ctx context.Context, pseudonym string) (storage.User, error)
	Details(ctx context.Context, id orcid.ID) (storage.Details, error)
	SlackUser(ctx context.Context, id orcid.ID) (storage.SlackUser, error)
}

// Module provides profile routes.
type Module struct {
	base       module.Base
	prereviews Prereviews
	people     People
	store      Store
	preprints  preprint.Getter
}

// New returns a profiles module.
func New(base module.Base, prereviews Prereviews, people People, store Store, preprints preprint.Getter) Module {
	return Module{base: base, prereviews: prereviews, people: people, store: store, preprints: preprints}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "profiles" }

// Mount wires profile route handlers.
func (m Module) Mount() (module.Mount, error) {
	return module.Mount{Routes: []module.Route{
		{Pattern: http.MethodGet + " " + routepath.ProfilePrefix + "{profileID}", Handler: m.base.Handle(m.profile)},
	}}, nil
}
