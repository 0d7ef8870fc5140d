package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"

	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/ingest"
	"github.com/lox/grlweather/internal/owm"
	"github.com/lox/grlweather/internal/store"
)

// Globals are shared by every subcommand.
type Globals struct {
	APIKey     string        `name:"api-key" env:"OPENWEATHER_API_KEY" help:"OpenWeatherMap API key."`
	DB         string        `name:"db" env:"GRLWEATHER_DB" default:"data/grlweather.db" help:"SQLite path for the fetch audit log. Empty disables auditing."`
	Timeout    time.Duration `env:"OWM_TIMEOUT" default:"10s" help:"Timeout for each OpenWeatherMap request."`
	MaxRetries int           `env:"OWM_MAX_RETRIES" default:"0" help:"Retries after an HTTP 429 response."`
	LogLevel   string        `env:"LOG_LEVEL" enum:"debug,info,warn,error" default:"info" help:"Log level (${enum})."`
}

type CLI struct {
	kongdotenv.ENVFileConfig
	Globals

	Serve ServeCmd `cmd:"" default:"1" help:"Serve the weather dashboard."`
	Fetch FetchCmd `cmd:"" help:"Fetch current conditions for cities once and print them."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("grlweather"),
		kong.Description("GRL Weather Checker: current conditions for a handful of cities."),
		kong.UsageOnError(),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)

	slog.SetDefault(newLogger(cli.LogLevel))
	kctx.FatalIfErrorf(kctx.Run(&cli.Globals))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func (g *Globals) client() *owm.Client {
	if g.APIKey == "" {
		slog.Warn("no OpenWeatherMap API key configured; every fetch will fail")
	}
	return owm.New(owm.Config{
		APIKey:     g.APIKey,
		Timeout:    g.Timeout,
		MaxRetries: g.MaxRetries,
	})
}

// fetcher returns the weather client, wrapped with the audit log when a
// database is configured. The returned close function releases the database.
func (g *Globals) fetcher() (cities.Fetcher, *store.Store, func(), error) {
	client := g.client()
	if strings.TrimSpace(g.DB) == "" {
		slog.Info("fetch audit disabled")
		return client, nil, func() {}, nil
	}

	db, err := store.Open(g.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database migrated", "path", g.DB)

	return ingest.NewAuditedFetcher(client, st, slog.Default()), st, func() { db.Close() }, nil
}
