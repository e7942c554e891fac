package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FocuswithJustin/bibleref/internal/api"
	"github.com/FocuswithJustin/bibleref/internal/sqlite"
)

// ServeCmd starts the API server.
type ServeCmd struct {
	Port           int           `short:"p" env:"BIBLEREF_PORT" default:"8080" help:"HTTP server port"`
	AllowedOrigins []string      `name:"allowed-origins" env:"BIBLEREF_ALLOWED_ORIGINS" help:"CORS and WebSocket origins (default all)"`
	CacheSize      int           `default:"4096" help:"Maximum memoized parse results"`
	CacheTTL       time.Duration `name:"cache-ttl" default:"10m" help:"Lifetime of memoized parse results"`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.Start(ctx, api.Config{
		Port:           c.Port,
		Version:        version,
		DBDriver:       g.DBDriver,
		DSN:            g.DB,
		CacheTTL:       c.CacheTTL,
		CacheSize:      c.CacheSize,
		AllowedOrigins: c.AllowedOrigins,
	})
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Fprintf(stdout, "bibleref version %s\n", version)
	fmt.Fprintf(stdout, "sqlite driver: %s (%s)\n", info.DriverName, info.Package)
	return nil
}
