package profiles

import (
	"context"
	"strings"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/platform/logging"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/zenodo"
)

const josiah orcid.ID = "0000-0002-1825-0097"

func testBase() module.Base {
	logger := logging.Discard()
	return module.Base{
		Writer: response.Writer{Errors: weberror.Mapper{Logger: logger}.Respond, Logger: logger},
		Logger: logger,
	}
}

type fakePrereviews struct {
	byORCID     map[string][]zenodo.Prereview
	byPseudonym map[string][]zenodo.Prereview
}

func (f fakePrereviews) RecordsByORCID(_ context.Context, id string) ([]zenodo.Prereview, error) {
	return f.byORCID[id], nil
}

func (f fakePrereviews) RecordsByPseudonym(_ context.Context, pseudonym string) ([]zenodo.Prereview, error) {
	return f.byPseudonym[pseudonym], nil
}

type fakePeople map[orcid.ID]orcid.Details

func (f fakePeople) PersonalDetails(_ context.Context, id orcid.ID) (orcid.Details, error) {
	details, ok := f[id]
	if !ok {
		return orcid.Details{}, orcid.ErrNotFound
	}
	return details, nil
}

type fakeStore struct {
	users   []storage.User
	details map[orcid.ID]storage.Details
	slack   map[orcid.ID]storage.SlackUser
}

func (f fakeStore) UserByPseudonym(_ context.Context, pseudonym string) (storage.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Pseudonym, pseudonym) {
			return user, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (f fakeStore) Details(_ context.Context, id orcid.ID) (storage.Details, error) {
	details, ok := f.details[id]
	if !ok {
		return storage.Details{}, storage.ErrNotFound
	}
	return details, nil
}

func (f fakeStore) SlackUser(_ context.Context, id orcid.ID) (storage.SlackUser, error) {
	user, ok := f.slack[id]
	if !ok {
		return storage.SlackUser{}, storage.ErrNotFound
	}
	return user, nil
}
