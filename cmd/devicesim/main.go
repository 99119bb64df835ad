// Command devicesim serves a simulated motor controller on the same HTTP
// paths as the real one, for development without hardware.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"controlling_motor/internal/config"
	"controlling_motor/internal/device"
	"controlling_motor/internal/logger"
	"controlling_motor/internal/server"

	"github.com/benbjohnson/clock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level).With("component", "devicesim")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tick := cfg.Simulator.Tick
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}

	sim := device.NewSimulator(clock.New())
	go sim.Run(ctx, tick)

	srv := server.New(cfg.Simulator.Port, device.NewHandler(sim, log).InitRoutes())
	go func() {
		log.Infow("simulator_started", "addr", srv.Addr(), "tick", tick)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting simulator", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Errorw("simulator forced to shutdown", "err", err)
	}
}
