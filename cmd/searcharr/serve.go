package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/channel/adapters/telegram"
	"github.com/memohai/searcharr/internal/command"
	"github.com/memohai/searcharr/internal/config"
	"github.com/memohai/searcharr/internal/conversation"
	idb "github.com/memohai/searcharr/internal/db"
	"github.com/memohai/searcharr/internal/i18n"
	"github.com/memohai/searcharr/internal/logger"
	"github.com/memohai/searcharr/internal/session"
	"github.com/memohai/searcharr/internal/sweeper"
	"github.com/memohai/searcharr/internal/version"
)

const (
	dbOpenTimeout       = 10 * time.Second
	catalogSetupTimeout = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

type configPath string

// loadedConfig is the resolved configuration together with what Validate and Resolve reported.
type loadedConfig struct {
	fx.Out

	Config config.Config
	Report configReport
}

type configReport struct {
	problems          []config.Problem
	generatedPassword string
}

func runServe(_ *cobra.Command, _ []string) error {
	app := fx.New(
		fx.Supply(configPath(config.ResolvePath(configFlag))),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDB,
			provideSessionStore,
			provideTranslator,
			provideSources,
			provideEngine,
			provideDispatcher,
			provideBot,
			provideSweeper,
		),
		fx.Invoke(
			reportConfig,
			startBot,
			startSweeper,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func provideConfig(path configPath) (loadedConfig, error) {
	cfg, err := config.Load(string(path))
	if err != nil {
		return loadedConfig{}, fmt.Errorf("load config: %w", err)
	}
	problems := cfg.Validate()
	if config.HasErrors(problems) {
		var msgs []string
		for _, p := range problems {
			if p.Severity == config.SeverityError {
				msgs = append(msgs, p.Field+": "+p.Message)
			}
		}
		return loadedConfig{}, fmt.Errorf("invalid config %s: %s", path, strings.Join(msgs, "; "))
	}
	resolved, generated := cfg.Resolve()
	return loadedConfig{
		Config: resolved,
		Report: configReport{problems: problems, generatedPassword: generated},
	}, nil
}

func provideLogger(lc fx.Lifecycle, cfg config.Config) (*slog.Logger, error) {
	closeLog, err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return closeLog()
		},
	})
	return logger.L, nil
}

func reportConfig(log *slog.Logger, report configReport) {
	log.Info("starting searcharr", slog.String("version", version.GetInfo()))
	for _, p := range report.problems {
		log.Warn("config problem", slog.String("field", p.Field), slog.String("message", p.Message))
	}
	if report.generatedPassword != "" {
		log.Warn("no admin password configured, generated one for this run",
			slog.String("admin_password", report.generatedPassword))
	}
}

func provideDB(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbOpenTimeout)
	defer cancel()

	conn, err := idb.Open(ctx, cfg.Bot.DBPath)
	if err != nil {
		return nil, err
	}
	migrations, err := migrationsFS()
	if err == nil {
		err = idb.RunMigrate(log, cfg.Bot.DBPath, migrations, "up", nil)
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

func provideSessionStore(log *slog.Logger, conn *sql.DB) *session.Store {
	return session.NewStore(log, conn)
}

func provideTranslator(log *slog.Logger, cfg config.Config) (*i18n.Translator, error) {
	return i18n.Load(cfg.Bot.Language, log)
}

// provideSources connects every enabled catalog. A catalog whose server cannot be reached
// at startup is disabled for this run.
func provideSources(log *slog.Logger, cfg config.Config) ([]conversation.Source, error) {
	ctx, cancel := context.WithTimeout(context.Background(), catalogSetupTimeout)
	defer cancel()

	constructors := []struct {
		kind catalog.Kind
		open func(catalog.ClientConfig) (catalog.Catalog, error)
	}{
		{catalog.KindSeries, func(c catalog.ClientConfig) (catalog.Catalog, error) { return catalog.NewSonarr(c) }},
		{catalog.KindMovie, func(c catalog.ClientConfig) (catalog.Catalog, error) { return catalog.NewRadarr(c) }},
		{catalog.KindBook, func(c catalog.ClientConfig) (catalog.Catalog, error) { return catalog.NewReadarr(c) }},
	}

	var sources []conversation.Source
	for _, ctor := range constructors {
		section := cfg.Catalog(ctor.kind)
		if !section.Enabled {
			continue
		}
		clog := log.With(slog.String("catalog", ctor.kind.App()))
		client, err := ctor.open(section.ClientConfig(log))
		if err != nil {
			return nil, fmt.Errorf("%s client: %w", ctor.kind.App(), err)
		}
		lib, err := catalog.Configure(ctx, client, section.LibraryConfig(), log)
		if err != nil {
			clog.Error("catalog unavailable, disabled for this run", slog.Any("error", err))
			continue
		}
		clog.Info("catalog enabled",
			slog.Int("root_folders", len(lib.RootFolderOptions())),
			slog.Int("quality_profiles", len(lib.QualityProfileOptions())))
		sources = append(sources, lib)
	}
	if len(sources) == 0 {
		log.Warn("no catalog is available, searches will be refused")
	}
	return sources, nil
}

func provideEngine(log *slog.Logger, store *session.Store, tr *i18n.Translator, cfg config.Config, sources []conversation.Source) *conversation.Engine {
	return conversation.NewEngine(log, store, tr, cfg.Passwords(), cfg.EngineSettings(), sources...)
}

func provideDispatcher(log *slog.Logger, engine *conversation.Engine, tr *i18n.Translator, cfg config.Config) (*command.Dispatcher, error) {
	return command.NewDispatcher(log, engine, tr, cfg.CommandAliases())
}

func provideBot(log *slog.Logger, cfg config.Config, dispatcher *command.Dispatcher, engine *conversation.Engine) (*telegram.Bot, error) {
	return telegram.New(log, telegram.Config{
		Token:    cfg.Bot.Token,
		SendRate: cfg.Bot.SendRate,
		Debug:    cfg.Bot.Debug,
	}, dispatcher, engine)
}

func provideSweeper(log *slog.Logger, store *session.Store, cfg config.Config) (*sweeper.Sweeper, error) {
	return sweeper.New(log, store, cfg.Bot.ConversationMaxAge.Duration, cfg.Bot.SweepSchedule)
}

func startBot(lc fx.Lifecycle, bot *telegram.Bot, dispatcher *command.Dispatcher, log *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := bot.Start(ctx); err != nil {
				return fmt.Errorf("start telegram bot: %w", err)
			}
			log.Info("bot started", slog.Any("commands", dispatcher.Commands()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := bot.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("stop telegram bot: %w", err)
			}
			return nil
		},
	})
}

func startSweeper(lc fx.Lifecycle, sw *sweeper.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: sw.Start,
		OnStop:  sw.Stop,
	})
}
