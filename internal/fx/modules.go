package fx

import (
	"context"

	"faceit-dashboard/internal/api"
	"faceit-dashboard/internal/config"
	"faceit-dashboard/internal/constants"
	"faceit-dashboard/internal/database"
	"faceit-dashboard/internal/logger"
	"faceit-dashboard/internal/refresh"
	"faceit-dashboard/internal/repository"
	"faceit-dashboard/internal/server"
	"faceit-dashboard/internal/service"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func ProvideCycler(svc *service.FriendService, cfg *config.Config, clock clockwork.Clock, log zerolog.Logger) *refresh.Cycler {
	return refresh.NewCycler(
		svc.RefreshOne,
		constants.CyclerInterval,
		constants.CyclerCooldown,
		cfg.CyclerEnabled,
		clock,
		log,
	)
}

func ProvideScheduler(svc *service.FriendService, clock clockwork.Clock, log zerolog.Logger) *refresh.Scheduler {
	return refresh.NewScheduler(
		func(ctx context.Context) { svc.RefreshAll(ctx) },
		constants.AutoUpdateBase,
		constants.AutoUpdatePerItem,
		clock,
		log,
	)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideClock),
	// api clients
	fx.Provide(api.NewFaceitClient),
	fx.Provide(api.NewLcryptClient),
	fx.Provide(api.NewMediaClient),
	// repos
	fx.Provide(repository.NewFriendRepository),
	fx.Provide(repository.NewEloHistoryRepository),
	// svc
	fx.Provide(service.NewFriendService),
	fx.Provide(service.NewMediaService),
	// refresh loops
	fx.Provide(ProvideCycler),
	fx.Provide(ProvideScheduler),
	// server
	fx.Provide(server.New),
)
