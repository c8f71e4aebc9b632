// Package web parses web command configuration and launches the web service.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prereview/prereview/internal/email"
	"github.com/prereview/prereview/internal/openalex"
	"github.com/prereview/prereview/internal/orcid"
	entrypoint "github.com/prereview/prereview/internal/platform/cmd"
	"github.com/prereview/prereview/internal/platform/config"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/platform/otel"
	"github.com/prereview/prereview/internal/preprint"
	"github.com/prereview/prereview/internal/reviewrequest"
	requestsqlite "github.com/prereview/prereview/internal/reviewrequest/sqlite"
	"github.com/prereview/prereview/internal/services/web"
	"github.com/prereview/prereview/internal/services/web/platform/observability"
	"github.com/prereview/prereview/internal/services/web/platform/requestmeta"
	"github.com/prereview/prereview/internal/services/web/platform/signedtoken"
	"github.com/prereview/prereview/internal/services/web/routepath"
	websqlite "github.com/prereview/prereview/internal/services/web/storage/sqlite"
	"github.com/prereview/prereview/internal/slack"
	"github.com/prereview/prereview/internal/zenodo"
	"github.com/sirupsen/logrus"
)

// Config holds web command configuration.
type Config struct {
	HTTPAddr            string        `env:"PREREVIEW_HTTP_ADDR" envDefault:"localhost:3000"`
	Origin              string        `env:"PREREVIEW_PUBLIC_URL" envDefault:"http://localhost:3000"`
	TrustForwardedProto bool          `env:"PREREVIEW_TRUST_FORWARDED_PROTO" envDefault:"false"`
	DBPath              string        `env:"PREREVIEW_DB_PATH" envDefault:"data/web.db"`
	RequestsDBPath      string        `env:"PREREVIEW_REQUESTS_DB_PATH" envDefault:"data/review-requests.db"`
	SecretKey           string        `env:"PREREVIEW_SECRET"`
	SessionTTL          time.Duration `env:"PREREVIEW_SESSION_TTL" envDefault:"720h"`
	SessionSweep        string        `env:"PREREVIEW_SESSION_SWEEP_SCHEDULE" envDefault:"@hourly"`
	CategorizeSchedule  string        `env:"PREREVIEW_CATEGORIZE_SCHEDULE" envDefault:"@every 5m"`
	EmailInterval       time.Duration `env:"PREREVIEW_EMAIL_INTERVAL" envDefault:"1m"`
	EmailBurst          int           `env:"PREREVIEW_EMAIL_BURST" envDefault:"3"`
	ScietyKey           string        `env:"PREREVIEW_SCIETY_LIST_TOKEN"`

	OrcidClientID     string `env:"PREREVIEW_ORCID_CLIENT_ID"`
	OrcidClientSecret string `env:"PREREVIEW_ORCID_CLIENT_SECRET"`
	OrcidURL          string `env:"PREREVIEW_ORCID_URL" envDefault:"https://orcid.org"`
	OrcidAPIURL       string `env:"PREREVIEW_ORCID_API_URL" envDefault:"https://pub.orcid.org"`

	SlackClientID     string `env:"PREREVIEW_SLACK_CLIENT_ID"`
	SlackClientSecret string `env:"PREREVIEW_SLACK_CLIENT_SECRET"`
	SlackToken        string `env:"PREREVIEW_SLACK_TOKEN"`
	SlackChannel      string `env:"PREREVIEW_SLACK_CHANNEL"`
	SlackOrcidField   string `env:"PREREVIEW_SLACK_ORCID_FIELD"`
	SlackURL          string `env:"PREREVIEW_SLACK_URL" envDefault:"https://slack.com"`

	ZenodoURL       string `env:"PREREVIEW_ZENODO_URL" envDefault:"https://zenodo.org"`
	ZenodoToken     string `env:"PREREVIEW_ZENODO_TOKEN"`
	ZenodoCommunity string `env:"PREREVIEW_ZENODO_COMMUNITY" envDefault:"prereview-reviews"`

	CrossrefURL string `env:"PREREVIEW_CROSSREF_URL" envDefault:"https://api.crossref.org"`
	DataCiteURL string `env:"PREREVIEW_DATACITE_URL" envDefault:"https://api.datacite.org"`
	OpenAlexURL string `env:"PREREVIEW_OPENALEX_URL" envDefault:"https://api.openalex.org"`
	Mailto      string `env:"PREREVIEW_MAILTO" envDefault:"help@prereview.org"`

	RedisURL      string        `env:"PREREVIEW_REDIS_URL"`
	PreprintCache time.Duration `env:"PREREVIEW_PREPRINT_CACHE_TTL" envDefault:"6h"`

	SendGridKey   string `env:"PREREVIEW_SENDGRID_API_KEY"`
	SendGridURL   string `env:"PREREVIEW_SENDGRID_URL"`
	EmailFrom     string `env:"PREREVIEW_EMAIL_FROM" envDefault:"help@prereview.org"`
	EmailFromName string `env:"PREREVIEW_EMAIL_FROM_NAME" envDefault:"PREreview"`

	Log       logging.Options
	Telemetry otel.Options
	Rollbar   observability.RollbarOptions
}

// ParseConfig loads .env, then the environment, then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Origin, "public-url", cfg.Origin, "Public site origin")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "Web SQLite database path")
	fs.StringVar(&cfg.RequestsDBPath, "requests-db-path", cfg.RequestsDBPath, "Review request SQLite database path")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Trust X-Forwarded-Proto from a proxy")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Origin = strings.TrimRight(strings.TrimSpace(cfg.Origin), "/")
	return cfg, nil
}

// Run starts the web service and its background jobs.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, cfg.Telemetry, logger, func(ctx context.Context) error {
		return serve(ctx, cfg, logger)
	})
}

func serve(ctx context.Context, cfg Config, logger logrus.FieldLogger) error {
	signer, err := signedtoken.NewSigner(cfg.SecretKey)
	if err != nil {
		return fmt.Errorf("secret key: %w", err)
	}
	reporter := observability.NewRollbarReporter(cfg.Rollbar)
	defer observability.Flush()

	store, err := websqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open web store: %w", err)
	}
	defer store.Close()

	requestStore, err := requestsqlite.Open(ctx, cfg.RequestsDBPath)
	if err != nil {
		return fmt.Errorf("open review request store: %w", err)
	}
	defer requestStore.Close()

	projector := reviewrequest.NewProjector(requestStore,
		reviewrequest.WithCategorizer(openalex.NewClient(cfg.OpenAlexURL, cfg.Mailto, nil)),
		reviewrequest.WithLogger(logger),
	)
	if err := projector.Start(ctx, cfg.CategorizeSchedule); err != nil {
		return fmt.Errorf("start review request projector: %w", err)
	}
	defer projector.Stop()

	stopSweeper, err := web.StartSessionSweeper(ctx, store, cfg.SessionSweep, logger)
	if err != nil {
		return err
	}
	defer stopSweeper()

	preprints, closeCache, err := newPreprints(cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	server, err := web.NewServer(ctx, web.Config{
		HTTPAddr:      cfg.HTTPAddr,
		Origin:        cfg.Origin,
		Policy:        requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
		SessionTTL:    cfg.SessionTTL,
		SlackChannel:  cfg.SlackChannel,
		FeedKey:       cfg.ScietyKey,
		EmailInterval: cfg.EmailInterval,
		EmailBurst:    cfg.EmailBurst,
		Store:         store,
		Prereviews: zenodo.NewClient(zenodo.Config{
			BaseURL:   cfg.ZenodoURL,
			Token:     cfg.ZenodoToken,
			Community: cfg.ZenodoCommunity,
		}, nil),
		Requests:  projector,
		Preprints: preprints,
		ORCID: orcid.NewClient(orcid.Config{
			ClientID:     cfg.OrcidClientID,
			ClientSecret: cfg.OrcidClientSecret,
			BaseURL:      cfg.OrcidURL,
			APIURL:       cfg.OrcidAPIURL,
			RedirectURL:  cfg.Origin + routepath.OrcidCallback,
		}, nil),
		Slack: slack.NewClient(slack.Config{
			BaseURL:      cfg.SlackURL,
			ClientID:     cfg.SlackClientID,
			ClientSecret: cfg.SlackClientSecret,
			RedirectURL:  cfg.Origin + routepath.ConnectSlackCallback,
			BotToken:     cfg.SlackToken,
			OrcidFieldID: cfg.SlackOrcidField,
		}, nil),
		Mailer:   newMailer(cfg, logger),
		Signer:   signer,
		Reporter: reporter,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}
	defer server.Close()

	logger.WithField("addr", cfg.HTTPAddr).Info("web listening")
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}

// newPreprints returns the preprint resolver, cached in Redis when a URL is
// configured.
func newPreprints(cfg Config, logger logrus.FieldLogger) (preprint.Getter, func(), error) {
	resolver := preprint.NewResolver(preprint.ResolverConfig{
		CrossrefURL: cfg.CrossrefURL,
		DataCiteURL: cfg.DataCiteURL,
		Mailto:      cfg.Mailto,
	}, nil)
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return resolver, func() {}, nil
	}
	cache, err := preprint.NewRedisCache(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return preprint.NewCachingResolver(resolver, cache, cfg.PreprintCache, logger), func() {
		if err := cache.Close(); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Warn("close redis cache")
		}
	}, nil
}

// newMailer sends through SendGrid when a key is configured and logs
// messages otherwise.
func newMailer(cfg Config, logger logrus.FieldLogger) email.Sender {
	if strings.TrimSpace(cfg.SendGridKey) == "" {
		return email.Metered(email.LogSender{Logger: logger})
	}
	from := email.Address{Name: cfg.EmailFromName, Email: cfg.EmailFrom}
	return email.Metered(email.NewSendGridSender(cfg.SendGridKey, cfg.SendGridURL, from))
}
