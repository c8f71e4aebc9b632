// Package weberror turns handler failures into the shared error responses.
package weberror

import (
	"context"
	"errors"
	"net/http"

	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/orcid"
	"github.com/prereview/prereview/internal/preprint"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/observability"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/storage"
	"github.com/prereview/prereview/internal/services/web/templates"
	"github.com/prereview/prereview/internal/slack"
	"github.com/prereview/prereview/internal/zenodo"
	"github.com/sirupsen/logrus"
)

// Mapper maps typed errors to responses, logging and reporting the
// unexpected ones.
type Mapper struct {
	Logger   logrus.FieldLogger
	Reporter observability.Reporter
}

// Respond implements response.ErrorMapper.
func (m Mapper) Respond(r *http.Request, err error) response.Response {
	switch apperrors.KindOf(Classify(err)) {
	case apperrors.KindNoSession:
		return response.LogIn{Location: r.URL.RequestURI()}
	case apperrors.KindNotFound:
		return ProblemPage(r, templates.ProblemPageNotFound, http.StatusNotFound)
	case apperrors.KindInvalidToken:
		return ProblemPage(r, templates.ProblemInvalidLink, http.StatusNotFound)
	case apperrors.KindWrongUser, apperrors.KindAlreadyCompleted:
		return ProblemPage(r, templates.ProblemNoPermission, http.StatusForbidden)
	case apperrors.KindDeclined:
		return ProblemPage(r, templates.ProblemInviteDeclined, http.StatusGone)
	case apperrors.KindAlreadyVerified:
		return response.Redirect{Location: routepath.MyDetails}
	case apperrors.KindUnsupported:
		return ProblemPage(r, templates.ProblemNotSupported, http.StatusBadRequest)
	case apperrors.KindNotAPreprint:
		return ProblemPage(r, templates.ProblemNotAPreprint, http.StatusBadRequest)
	case apperrors.KindInvalidInput:
		return ProblemPage(r, templates.ProblemPageNotFound, http.StatusBadRequest)
	case apperrors.KindUnavailable:
		m.logger(r).WithError(err).Warn("dependency unavailable")
		return ProblemPage(r, templates.ProblemHavingProblems, http.StatusServiceUnavailable)
	default:
		if !errors.Is(err, context.Canceled) {
			m.logger(r).WithError(err).Error("unexpected handler error")
			if m.Reporter != nil {
				m.Reporter.ReportError(r, err)
			}
		}
		return ProblemPage(r, templates.ProblemHavingProblems, http.StatusServiceUnavailable)
	}
}

// Classify gives the sentinel errors of the collaborators an error kind.
// Typed errors and unknown failures pass through unchanged.
func Classify(err error) error {
	if err == nil || apperrors.KindOf(err) != apperrors.KindUnknown {
		return err
	}
	switch {
	case errors.Is(err, preprint.ErrNotAPreprint):
		return apperrors.Wrap(apperrors.KindNotAPreprint, err)
	case errors.Is(err, preprint.ErrUnsupported):
		return apperrors.Wrap(apperrors.KindUnsupported, err)
	case errors.Is(err, preprint.ErrNotFound),
		errors.Is(err, preprint.ErrNotADOI),
		errors.Is(err, zenodo.ErrNotFound),
		errors.Is(err, orcid.ErrNotFound),
		errors.Is(err, orcid.ErrInvalidID),
		errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, err)
	case errors.Is(err, preprint.ErrUnavailable),
		errors.Is(err, zenodo.ErrUnavailable),
		errors.Is(err, orcid.ErrUnavailable),
		errors.Is(err, slack.ErrUnavailable),
		errors.Is(err, openalex.ErrUnavailable):
		return apperrors.Wrap(apperrors.KindUnavailable, err)
	}
	return err
}

// ProblemPage builds a page response for one of the shared problem pages.
func ProblemPage(r *http.Request, problem templates.Problem, status int) response.Response {
	return response.Page{
		Title:  templates.T(httpx.RequestContext(r), templates.ProblemTitleKey(problem)),
		Status: status,
		Main:   templates.ProblemPage(problem),
	}
}

func (m Mapper) logger(r *http.Request) logrus.FieldLogger {
	logger := m.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithFields(logrus.Fields{
		"request_id": httpx.RequestIDOf(r),
		"path":       r.URL.Path,
	})
}
