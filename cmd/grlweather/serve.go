package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/lox/grlweather/internal/api"
	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/ingest"
)

type ServeCmd struct {
	Port                 string        `env:"PORT" default:"8080" help:"HTTP server port."`
	Cities               []string      `name:"cities" env:"DEFAULT_CITIES" default:"Manila,Bern,Delhi,Lilongwe,Islamabad" help:"Default city list."`
	RefreshInterval      time.Duration `env:"REFRESH_INTERVAL" default:"0s" help:"Reload every listed city on this interval. 0 disables."`
	LastCallWins         bool          `env:"LAST_CALL_WINS" help:"Ignore completions from fetches superseded by a newer call for the same city."`
	PayloadRetentionDays int           `env:"PAYLOAD_RETENTION_DAYS" default:"30" help:"Days to keep raw payloads in the audit log. 0 keeps them forever."`
}

func (c *ServeCmd) Run(g *Globals) error {
	fetcher, audit, closeDB, err := g.fetcher()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cs := cities.New(fetcher, c.Cities)
	if c.LastCallWins {
		cs.SetPolicy(cities.LastCallWins)
	}
	storeDone := make(chan struct{})
	go func() {
		cs.Run(ctx)
		close(storeDone)
	}()

	scheduler := ingest.NewScheduler(cs, c.RefreshInterval)
	if audit != nil {
		scheduler.SetAuditStore(audit, c.PayloadRetentionDays)
	}
	go scheduler.Run(ctx)

	server := api.NewServer(cs, audit, c.Port)
	err = server.Run(ctx)
	cancel()
	<-storeDone
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}
