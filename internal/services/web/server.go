// Package web hosts the browser-facing PREreview service.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/email"
	"github.com/prereview/prereview/internal/platform/metrics"
	"github.com/prereview/prereview/internal/platform/timeouts"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/prereview/prereview/internal/services/web/app"
	module "github.com/prereview/prereview/internal/services/web/module"
	"github.com/prereview/prereview/internal/services/web/modules/auth"
	"github.com/prereview/prereview/internal/services/web/modules/authorinvite"
	"github.com/prereview/prereview/internal/services/web/modules/clubs"
	"github.com/prereview/prereview/internal/services/web/modules/connectslack"
	"github.com/prereview/prereview/internal/services/web/modules/mydetails"
	"github.com/prereview/prereview/internal/services/web/modules/profiles"
	"github.com/prereview/prereview/internal/services/web/modules/public"
	"github.com/prereview/prereview/internal/services/web/modules/requestreview"
	"github.com/prereview/prereview/internal/services/web/modules/reviewrequests"
	"github.com/prereview/prereview/internal/services/web/modules/reviews"
	"github.com/prereview/prereview/internal/services/web/modules/writereview"
	"github.com/prereview/prereview/internal/services/web/platform/contactemail"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/flowstate"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/i18n"
	"github.com/prereview/prereview/internal/services/web/platform/observability"
	"github.com/prereview/prereview/internal/services/web/platform/ratelimit"
	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/platform/weberror"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/sirupsen/logrus"
)

// Store is the service's own persistence.
type Store interface {
	auth.SessionReader
	auth.Store
	profiles.Store
	mydetails.DetailsStore
	connectslack.Store
	authorinvite.InviteStore
	contactemail.Store
	flowstate.Store
	Ping(ctx context.Context) error
}

// Prereviews reads and deposits PREreviews on Zenodo.
type Prereviews interface {
	public.PrereviewReader
	reviews.Prereviews
	profiles.Prereviews
	clubs.ClubPrereviews
	reviewrequests.AllPrereviews
	writereview.Depositor
	authorinvite.AuthorAdder
}

// Requests is the review-request read model and its publisher.
type Requests interface {
	Snapshot() reviewrequest.State
	requestreview.Publisher
}

// ORCID logs people in and looks up public records.
type ORCID interface {
	auth.OrcidLogin
	profiles.People
}

// Slack links accounts and posts announcements.
type Slack interface {
	connectslack.SlackAPI
	requestreview.Announcer
}

// Signer signs OAuth state and emailed links.
type Signer interface {
	Sign(purpose, value string, ttl time.Duration) (string, error)
	Verify(token, purpose string) (string, error)
}

// Config defines startup inputs for the web service.
type Config struct {
	HTTPAddr string
	// Origin is the public scheme and host, for example https://prereview.org.
	Origin       string
	Policy       requestmeta.SchemePolicy
	SessionTTL   time.Duration
	SlackChannel string
	FeedKey      string
	// EmailInterval and EmailBurst limit verification emails per person.
	EmailInterval time.Duration
	EmailBurst    int

	Store      Store
	Prereviews Prereviews
	Requests   Requests
	Preprints  preprint.Getter
	ORCID      ORCID
	Slack      Slack
	Mailer     email.Sender
	Signer     Signer
	Reporter   observability.Reporter
	Logger     logrus.FieldLogger
}

// Form submissions per client address: a burst of mutationBurst, then one
// per mutationInterval.
const (
	mutationInterval = time.Second
	mutationBurst    = 30
)

// Server hosts the web HTTP surface and lifecycle.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler with every module mounted.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	mapper := weberror.Mapper{Logger: logger, Reporter: cfg.Reporter}
	writer := response.Writer{
		Origin: strings.TrimRight(cfg.Origin, "/"),
		Policy: cfg.Policy,
		Errors: mapper.Respond,
		Logger: logger,
	}
	base := module.Base{Writer: writer, Policy: cfg.Policy, Logger: logger}

	emails := contactemail.Verifier{
		Store:   cfg.Store,
		Signer:  cfg.Signer,
		Mailer:  cfg.Mailer,
		Limiter: ratelimit.New(cfg.EmailInterval, cfg.EmailBurst),
		Origin:  writer.Origin,
	}
	checks := map[string]public.HealthCheck{"database": cfg.Store.Ping}

	publicModules := []module.Module{
		public.New(base, cfg.Prereviews, cfg.Requests, cfg.Preprints, checks),
		auth.New(base, cfg.ORCID, cfg.Store, cfg.Signer, cfg.SessionTTL),
		reviews.New(base, cfg.Prereviews, cfg.Preprints, cfg.Requests),
		clubs.New(base, cfg.Prereviews, cfg.Preprints),
		profiles.New(base, cfg.Prereviews, cfg.ORCID, cfg.Store, cfg.Preprints),
		reviewrequests.New(base, cfg.Requests, cfg.Prereviews, cfg.Preprints, cfg.FeedKey),
		requestreview.New(base, cfg.Preprints, cfg.Store, cfg.Requests, cfg.Slack, requestreview.Config{
			SlackChannel: cfg.SlackChannel,
			Origin:       writer.Origin,
		}),
		writereview.New(base, writereview.Deps{
			Preprints: cfg.Preprints,
			Forms:     cfg.Store,
			Depositor: cfg.Prereviews,
			Invites:   cfg.Store,
			Mailer:    cfg.Mailer,
			Announcer: cfg.Slack,
		}, writereview.Config{SlackChannel: cfg.SlackChannel, Origin: writer.Origin}),
		authorinvite.New(base, cfg.Store, emails, cfg.Prereviews),
	}
	protectedModules := []module.Module{
		mydetails.New(base, cfg.Store, emails, cfg.Store),
		connectslack.New(base, cfg.Slack, cfg.Store, cfg.Signer),
	}

	notFound := writer.Handle(func(*http.Request) (response.Response, error) {
		return nil, apperrors.E(apperrors.KindNotFound, "no route")
	})
	h, err := app.Compose(app.ComposeInput{
		PublicModules:       publicModules,
		ProtectedModules:    protectedModules,
		RequestSchemePolicy: cfg.Policy,
		NotFound:            notFound,
	})
	if err != nil {
		return nil, err
	}

	rootMux := http.NewServeMux()
	rootMux.Handle(http.MethodGet+" "+routepath.Metrics, metrics.Handler())
	rootMux.Handle("/", httpx.Chain(h,
		ratelimit.New(mutationInterval, mutationBurst).Middleware(ratelimit.ClientIP),
		i18n.Middleware(),
		auth.Sessions(cfg.Store, cfg.Policy, logger),
		observability.Metrics(),
	))
	return httpx.Chain(rootMux,
		httpx.RecoverPanic(logger, observability.PanicReporter(cfg.Reporter)),
		httpx.RequestID(),
		observability.RequestLogger(logger),
	), nil
}

// NewServer validates config and constructs a web server.
func NewServer(_ context.Context, cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, fmt.Errorf("compose web handler: %w", err)
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves HTTP traffic until context cancellation or server stop.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown web http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web http: %w", err)
	}
}

// Close closes open server resources.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	_ = s.httpServer.Close()
}
