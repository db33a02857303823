package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"faceit-dashboard/internal/config"
	"faceit-dashboard/internal/constants"
	"faceit-dashboard/internal/domain"
	fxmodules "faceit-dashboard/internal/fx"
	"faceit-dashboard/internal/middleware"
	"faceit-dashboard/internal/refresh"
	"faceit-dashboard/internal/server"
	"faceit-dashboard/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	friends *service.FriendService,
	cycler *refresh.Cycler,
	scheduler *refresh.Scheduler,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := middleware.RequestID(logger)(c.Handler(srv.Routes()))

	// rescale the refresh loops whenever the roster changes size
	friends.OnRosterChange(func(roster []domain.Friend) {
		scheduler.Configure(cfg.AutoUpdateEnabled, len(roster))
		cycler.Stop()
		cycler.Start(roster)
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: handler,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			roster, err := friends.LoadRoster(ctx)
			if err != nil {
				return err
			}

			scheduler.Configure(cfg.AutoUpdateEnabled, len(roster))
			cycler.Start(roster)

			go func() {
				logger.Info().Str("addr", httpSrv.Addr).Msg("server starting")
				if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			scheduler.Stop()
			cycler.Stop()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
