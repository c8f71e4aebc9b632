package reviews

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
		Writer: response.Writer{Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type fakePrereviews struct {
	records   map[int]zenodo.Prereview
	results   zenodo.Results
	searchErr error
	lastQuery *zenodo.Query
}

func (f fakePrereviews) Search(_ context.Context, query zenodo.Query) (zenodo.Results, error) {
	if f.lastQuery != nil {
		*f.lastQuery = query
	}
	if f.searchErr != nil {
		return zenodo.Results{}, f.searchErr
	}
	return f.results, nil
}

func (f fakePrereviews) GetRecord(_ context.Context, id int) (zenodo.Prereview, error) {
	record, ok := f.records[id]
	if !ok {
		return zenodo.Prereview{}, zenodo.ErrNotFound
	}
	return record, nil
}

func (f fakePrereviews) RecordsForPreprint(_ context.Context, doi string) ([]zenodo.Prereview, error) {
	var out []zenodo.Prereview
	for _, record := range f.records {
		if record.PreprintDOI == doi {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakePreprints struct {
	items map[string]preprint.Preprint
	err   error
}

func (f fakePreprints) Get(_ context.Context, id preprint.ID) (preprint.Preprint, error) {
	if f.err != nil {
		return preprint.Preprint{}, f.err
	}
	item, ok := f.items[id.DOI]
	if !ok {
		return preprint.Preprint{}, preprint.ErrNotFound
	}
	return item, nil
}

type fakeRequests struct {
	state reviewrequest.State
}

func (f fakeRequests) Snapshot() reviewrequest.State {
	return f.state
}
