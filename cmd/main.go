package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "controlling_motor/docs"
	"controlling_motor/internal/config"
	"controlling_motor/internal/device"
	"controlling_motor/internal/handlers"
	"controlling_motor/internal/logger"
	"controlling_motor/internal/repository"
	"controlling_motor/internal/repository/db"
	"controlling_motor/internal/server"
	"controlling_motor/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title                       Motor Control Panel API
// @version                     1.0
// @description                 Sessions, telemetry, ramp sequences and the command journal of an SCK-300 motor controller.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml (+ MOTOR_* env overrides)
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level)
	if cfg.Auth.SigningKey == "" {
		log.Fatalw("auth.signing_key is empty; set it in config.yml or MOTOR_AUTH_SIGNING_KEY")
	}

	// open DB
	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	motor := device.NewClient(cfg.Device.BaseURL, cfg.Device.Timeout, log)
	services := service.NewService(repository.NewRepository(sqlDB), service.Deps{
		Device:    motor,
		Scheduler: service.NewScheduler(nil),
		Session: service.SessionOptions{
			PollInterval:   cfg.Telemetry.PollInterval,
			TimerInterval:  cfg.Telemetry.TimerInterval,
			CommandTimeout: cfg.Commands.Timeout,
			RoundTo:        cfg.Telemetry.RoundTo,
		},
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
		Log:        log,
	})
	apiHandler := handlers.NewHandler(services, log)

	// start HTTP server
	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	go func() {
		log.Infow("server_started", "addr", srv.Addr(), "device", cfg.Device.BaseURL)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(srv, services.Sessions, log)
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains HTTP and closes
// every session. The motor is left as it is.
func waitForShutdown(srv *server.Server, sessions *service.SessionManager, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if err := sessions.Shutdown(ctx); err != nil {
		log.Errorw("sessions did not close in time", "err", err)
	}
}
