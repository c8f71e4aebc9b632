package weberror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/preprint"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/slack"
	"github.com/prereview/prereview/internal/zenodo"
)

type recordingReporter struct {
	errs []error
}

func (r *recordingReporter) ReportError(_ *http.Request, err error) { r.errs = append(r.errs, err) }
func (r *recordingReporter) ReportPanic(*http.Request, any)          {}

func TestRespondStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: apperrors.E(apperrors.KindNotFound, "missing"), want: http.StatusNotFound},
		{name: "invalid token", err: apperrors.E(apperrors.KindInvalidToken, "expired"), want: http.StatusNotFound},
		{name: "wrong user", err: apperrors.E(apperrors.KindWrongUser, "not yours"), want: http.StatusForbidden},
		{name: "unsupported", err: apperrors.E(apperrors.KindUnsupported, "server"), want: http.StatusBadRequest},
		{name: "unavailable", err: apperrors.E(apperrors.KindUnavailable, "zenodo"), want: http.StatusServiceUnavailable},
		{name: "untyped", err: errors.New("boom"), want: http.StatusServiceUnavailable},
		{name: "zenodo missing", err: fmt.Errorf("load: %w", zenodo.ErrNotFound), want: http.StatusNotFound},
		{name: "not a preprint", err: preprint.ErrNotAPreprint, want: http.StatusBadRequest},
		{name: "unsupported server", err: preprint.ErrUnsupported, want: http.StatusBadRequest},
		{name: "slack down", err: fmt.Errorf("%w: status 500", slack.ErrUnavailable), want: http.StatusServiceUnavailable},
		{name: "declined invite", err: apperrors.E(apperrors.KindDeclined, "declined"), want: http.StatusGone},
		{name: "completed invite", err: apperrors.E(apperrors.KindAlreadyCompleted, "done"), want: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mapper := Mapper{Logger: logging.Discard()}
			resp := mapper.Respond(httptest.NewRequest(http.MethodGet, "/reviews/1", nil), tc.err)
			page, ok := resp.(response.Page)
			if !ok {
				t.Fatalf("response = %T, want response.Page", resp)
			}
			if page.Status != tc.want {
				t.Fatalf("status = %d, want %d", page.Status, tc.want)
			}
		})
	}
}

func TestRespondNoSessionLogsIn(t *testing.T) {
	t.Parallel()

	resp := Mapper{Logger: logging.Discard()}.Respond(httptest.NewRequest(http.MethodGet, "/my-details?x=1", nil), apperrors.E(apperrors.KindNoSession, "no session"))
	login, ok := resp.(response.LogIn)
	if !ok {
		t.Fatalf("response = %T, want response.LogIn", resp)
	}
	if login.Location != "/my-details?x=1" {
		t.Fatalf("Location = %q, want %q", login.Location, "/my-details?x=1")
	}
}

func TestRespondReportsOnlyUnexpectedErrors(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	mapper := Mapper{Logger: logging.Discard(), Reporter: reporter}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mapper.Respond(req, apperrors.E(apperrors.KindNotFound, "missing"))
	mapper.Respond(req, apperrors.E(apperrors.KindUnavailable, "down"))
	boom := errors.New("boom")
	mapper.Respond(req, boom)
	if len(reporter.errs) != 1 || !errors.Is(reporter.errs[0], boom) {
		t.Fatalf("reported = %v, want [%v]", reporter.errs, boom)
	}
}

func TestClassifyLeavesTypedErrors(t *testing.T) {
	t.Parallel()

	typed := apperrors.E(apperrors.KindWrongUser, "other user")
	if got := Classify(typed); got != typed {
		t.Fatalf("Classify(typed) = %v, want unchanged", got)
	}
	if got := apperrors.KindOf(Classify(preprint.ErrNotFound)); got != apperrors.KindNotFound {
		t.Fatalf("KindOf(Classify(preprint.ErrNotFound)) = %q, want %q", got, apperrors.KindNotFound)
	}
	plain := errors.New("boom")
	if got := Classify(plain); got != plain {
		t.Fatalf("Classify(plain) = %v, want unchanged", got)
	}
}

func TestRespondAlreadyVerifiedRedirects(t *testing.T) {
	t.Parallel()

	resp := Mapper{Logger: logging.Discard()}.Respond(
		httptest.NewRequest(http.MethodGet, "/my-details/verify-email-address", nil),
		apperrors.E(apperrors.KindAlreadyVerified, "verified"),
	)
	redirect, ok := resp.(response.Redirect)
	if !ok || redirect.Location != "/my-details" {
		t.Fatalf("response = %#v, want redirect to my details", resp)
	}
}
