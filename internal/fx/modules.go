package fx

import (
	"guild-tracker/internal/api"
	"guild-tracker/internal/auth"
	"guild-tracker/internal/config"
	"guild-tracker/internal/database"
	"guild-tracker/internal/logger"
	"guild-tracker/internal/repository"
	"guild-tracker/internal/server"
	"guild-tracker/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewMemberRepository),
	fx.Provide(repository.NewPointsRepository),
	// collaborators
	fx.Provide(auth.NewService),
	fx.Provide(api.NewExportClient),
	// svc
	fx.Provide(service.NewImportService),
	fx.Provide(service.NewHistoryService),
	fx.Provide(service.NewRosterService),
	// server
	fx.Provide(server.New),
)
