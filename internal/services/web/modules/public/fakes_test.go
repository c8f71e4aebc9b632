package public

import (
	"context"

	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/zenodo"
)

func testBase() module.Base {
	logger := logging.Discard()
	return module.Base{
		Writer: response.Writer{Origin: "https://prereview.example", Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type fakePrereviews struct {
	records []zenodo.Prereview
	err     error
}

func (f fakePrereviews) Recent(context.Context) ([]zenodo.Prereview, error) {
	return f.records, f.err
}

type fakeRequests struct {
	state reviewrequest.State
}

func (f fakeRequests) Snapshot() reviewrequest.State {
	return f.state
}

type fakePreprints map[string]preprint.Preprint

func (f fakePreprints) Get(_ context.Context, id preprint.ID) (preprint.Preprint, error) {
	item, ok := f[id.DOI]
	if !ok {
		return preprint.Preprint{}, preprint.ErrNotFound
	}
	return item, nil
}
