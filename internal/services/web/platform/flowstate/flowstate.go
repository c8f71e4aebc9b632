// Package flowstate saves the answers of multi-step flows between requests.
package flowstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/services/web/storage"
)

// Store persists raw form payloads by kind, owner and key.
type Store interface {
	Form(ctx context.Context, kind storage.FormKind, owner orcid.ID, key string) ([]byte, error)
	SaveForm(ctx context.Context, kind storage.FormKind, owner orcid.ID, key string, payload []byte) error
	DeleteForm(ctx context.Context, kind storage.FormKind, owner orcid.ID, key string) error
}

// Forms reads and writes one kind of form as T.
type Forms[T any] struct {
	Store Store
	Kind  storage.FormKind
}

// Load returns the saved form. ok is false when there is none.
func (f Forms[T]) Load(ctx context.Context, owner orcid.ID, key string) (form T, ok bool, err error) {
	if f.Store == nil {
		return form, false, errors.New("form store is not configured")
	}
	payload, err := f.Store.Form(ctx, f.Kind, owner, key)
	if errors.Is(err, storage.ErrNotFound) {
		return form, false, nil
	}
	if err != nil {
		return form, false, fmt.Errorf("load %s form: %w", f.Kind, err)
	}
	if err := json.Unmarshal(payload, &form); err != nil {
		return form, false, fmt.Errorf("decode %s form: %w", f.Kind, err)
	}
	return form, true, nil
}

// Save replaces the saved form.
func (f Forms[T]) Save(ctx context.Context, owner orcid.ID, key string, form T) error {
	if f.Store == nil {
		return errors.New("form store is not configured")
	}
	payload, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("encode %s form: %w", f.Kind, err)
	}
	if err := f.Store.SaveForm(ctx, f.Kind, owner, key, payload); err != nil {
		return fmt.Errorf("save %s form: %w", f.Kind, err)
	}
	return nil
}

// Delete removes the saved form; deleting a missing form is not an error.
func (f Forms[T]) Delete(ctx context.Context, owner orcid.ID, key string) error {
	if f.Store == nil {
		return errors.New("form store is not configured")
	}
	err := f.Store.DeleteForm(ctx, f.Kind, owner, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("delete %s form: %w", f.Kind, err)
	}
	return nil
}
