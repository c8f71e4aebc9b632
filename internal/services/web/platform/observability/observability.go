// Package observability provides request logging, metrics and error
// reporting middleware for the web service.
package observability

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/platform/metrics"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/rollbar/rollbar-go"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(status int) {
	if s.status == 0 {
		s.status = status
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(p []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(p)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

// RequestLogger emits one structured entry per request.
func RequestLogger(logger logrus.FieldLogger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)
			entry := logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     recorder.code(),
				"bytes":      recorder.bytes,
				"latency":    time.Since(started).String(),
				"request_id": httpx.RequestIDOf(r),
			})
			if recorder.code() >= http.StatusInternalServerError {
				entry.Warn("request")
				return
			}
			entry.Info("request")
		})
	}
}

// Metrics records request counts and latency by matched route pattern.
func Metrics() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, r)
			route := strings.TrimSpace(r.Pattern)
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveHTTP(r.Method, route, recorder.code(), time.Since(started))
		})
	}
}

// Reporter forwards unexpected failures to an error tracker.
type Reporter interface {
	ReportError(r *http.Request, err error)
	ReportPanic(r *http.Request, recovered any)
}

// RollbarOptions configures the Rollbar reporter.
type RollbarOptions struct {
	Token       string `env:"PREREVIEW_ROLLBAR_TOKEN"`
	Environment string `env:"PREREVIEW_ROLLBAR_ENVIRONMENT" envDefault:"development"`
	CodeVersion string `env:"PREREVIEW_ROLLBAR_CODE_VERSION"`
}

// RollbarReporter reports through the process-wide Rollbar notifier.
type RollbarReporter struct{}

// NewRollbarReporter configures Rollbar and returns a reporter, or nil when no
// token is set.
func NewRollbarReporter(options RollbarOptions) Reporter {
	token := strings.TrimSpace(options.Token)
	if token == "" {
		return nil
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(options.Environment)
	if options.CodeVersion != "" {
		rollbar.SetCodeVersion(options.CodeVersion)
	}
	rollbar.SetEnabled(true)
	return RollbarReporter{}
}

// ReportError sends err with request context.
func (RollbarReporter) ReportError(r *http.Request, err error) {
	if err == nil {
		return
	}
	rollbar.RequestError(rollbar.ERR, r, err)
}

// ReportPanic sends a recovered panic as a critical item.
func (RollbarReporter) ReportPanic(r *http.Request, recovered any) {
	err, ok := recovered.(error)
	if !ok {
		err = errors.New(fmt.Sprint(recovered))
	}
	rollbar.RequestError(rollbar.CRIT, r, err)
}

// Flush waits for queued Rollbar items to be sent.
func Flush() {
	rollbar.Wait()
}

// PanicReporter adapts a Reporter for httpx.RecoverPanic.
func PanicReporter(reporter Reporter) httpx.PanicReporter {
	if reporter == nil {
		return nil
	}
	return reporter.ReportPanic
}
