package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type FetchCmd struct {
	Cities []string `arg:"" name:"city" help:"City names to fetch."`
	Raw    bool     `help:"Print the raw JSON body instead of a summary."`
}

func (c *FetchCmd) Run(g *Globals) error {
	fetcher, _, closeDB, err := g.fetcher()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	failed := 0
	for _, city := range c.Cities {
		rec, err := fetcher.FetchWeather(ctx, city)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", city, err)
			continue
		}
		if c.Raw {
			fmt.Println(string(rec))
			continue
		}
		sum, err := rec.Summary()
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", city, err)
			continue
		}
		name := sum.City
		if sum.Country != "" {
			name += ", " + sum.Country
		}
		fmt.Printf("%s: %.1f°C (feels like %.1f°C), %s, humidity %d%%, wind %.1f m/s\n",
			name, sum.TempC, sum.FeelsLikeC, sum.Description, sum.Humidity, sum.WindSpeed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fetches failed", failed, len(c.Cities))
	}
	return nil
}
