package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"fieldwatch/internal/bootstrap/config"
	"fieldwatch/internal/bootstrap/database"
	"fieldwatch/internal/bootstrap/logging"
	"fieldwatch/internal/infrastructure/central"
	sqliterepo "fieldwatch/internal/infrastructure/persistence/sqlite/repository"
	"fieldwatch/internal/infrastructure/state"
	"fieldwatch/internal/ports"
	"fieldwatch/internal/usecase/query"
	syncusecase "fieldwatch/internal/usecase/sync"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideCentralClient),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSurveyRepository,
			fx.As(new(ports.SurveyStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			state.NewSQLiteState,
			fx.As(new(ports.SyncState)),
		),
	),
	fx.Provide(provideSyncService),
	fx.Provide(query.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB, st ports.SyncState) *App {
	return &App{
		Config:    cfg,
		DB:        db,
		SyncState: st,
	}
}

func provideCentralClient(cfg config.Config) (*central.Client, error) {
	return central.NewClient(cfg.Central)
}

func provideSyncService(client *central.Client, store ports.SurveyStore, st ports.SyncState) *syncusecase.Service {
	return syncusecase.NewService(client, store, st)
}
