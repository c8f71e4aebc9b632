// Package module defines the feature contract used by web composition.
package module

import (
	"net/http"

	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/sirupsen/logrus"
)

// Route is one ServeMux pattern, for example "GET /clubs/{id}".
type Route struct {
	Pattern string
	Handler http.Handler
}

// Mount describes the routes a module serves.
type Mount struct {
	Routes []Route
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// Base carries what every module needs to answer requests.
type Base struct {
	Writer response.Writer
	Policy requestmeta.SchemePolicy
	Logger logrus.FieldLogger
}

// Handle adapts a response handler through the shared writer.
func (b Base) Handle(fn response.HandlerFunc) http.Handler {
	return b.Writer.Handle(fn)
}

// Log returns the base logger, or the standard logger when unset.
func (b Base) Log() logrus.FieldLogger {
	if b.Logger == nil {
		return logrus.StandardLogger()
	}
	return b.Logger
}
