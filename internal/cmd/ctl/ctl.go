// Package ctl builds the prereviewctl operator command tree.
package ctl

import (
	"context"
	"fmt"
	"io"

	"github.com/prereview/prereview/internal/openalex"
	entrypoint "github.com/prereview/prereview/internal/platform/cmd"
	"github.com/prereview/prereview/internal/platform/config"
	"github.com/prereview/prereview/internal/platform/logging"
	"github.com/prereview/prereview/internal/platform/otel"
	"github.com/prereview/prereview/internal/reviewrequest"
	requestsqlite "github.com/prereview/prereview/internal/reviewrequest/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Config holds prereviewctl configuration. Values come from the environment;
// persistent flags override the database paths.
type Config struct {
	DBPath         string `env:"PREREVIEW_DB_PATH" envDefault:"data/web.db"`
	RequestsDBPath string `env:"PREREVIEW_REQUESTS_DB_PATH" envDefault:"data/review-requests.db"`
	OpenAlexURL    string `env:"PREREVIEW_OPENALEX_URL" envDefault:"https://api.openalex.org"`
	Mailto         string `env:"PREREVIEW_MAILTO" envDefault:"help@prereview.org"`

	Log       logging.Options
	Telemetry otel.Options
}

// ParseConfig loads .env and the environment into a Config.
func ParseConfig() (Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the command tree with args under telemetry.
func Run(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	logger, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	root := NewRootCommand(&cfg, logger)
	root.SetArgs(args)
	root.SetOut(out)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCtl, cfg.Telemetry, logger, func(ctx context.Context) error {
		return root.ExecuteContext(ctx)
	})
}

// NewRootCommand returns the prereviewctl command tree.
func NewRootCommand(cfg *Config, logger logrus.FieldLogger) *cobra.Command {
	root := &cobra.Command{
		Use:           "prereviewctl",
		Short:         "Operate a PREreview deployment",
		Long:          "prereviewctl migrates databases and maintains the review-request read model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "web SQLite database path")
	root.PersistentFlags().StringVar(&cfg.RequestsDBPath, "requests-db-path", cfg.RequestsDBPath, "review request SQLite database path")

	env := &environment{cfg: cfg, logger: logger}
	root.AddCommand(
		newMigrateCommand(env),
		newClubsCommand(),
		newRequestsCommand(env),
	)
	return root
}

// environment opens what a subcommand needs on demand.
type environment struct {
	cfg    *Config
	logger logrus.FieldLogger
}

// projector opens the request store and loads the read model. close must
// be called when done.
func (e *environment) projector(ctx context.Context, categorize bool) (*reviewrequest.Projector, func(), error) {
	store, err := requestsqlite.Open(ctx, e.cfg.RequestsDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open review request store: %w", err)
	}
	opts := []reviewrequest.ProjectorOption{reviewrequest.WithLogger(e.logger)}
	if categorize {
		opts = append(opts, reviewrequest.WithCategorizer(openalex.NewClient(e.cfg.OpenAlexURL, e.cfg.Mailto, nil)))
	}
	projector := reviewrequest.NewProjector(store, opts...)
	if err := projector.Refresh(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return projector, func() { _ = store.Close() }, nil
}
