package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/healthsync/internal/client"
	"github.com/claude/healthsync/internal/config"
	hsmcp "github.com/claude/healthsync/internal/mcp"
	"github.com/claude/healthsync/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "healthsync server URL (remote mode)")
	configPath := flag.String("config", "", "server config file (local mode, reads the database directly)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("healthsync-mcp", Version)
		return
	}

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(*serverURL, *configPath, log); err != nil {
		log.Error("healthsync-mcp failed", "error", err)
		os.Exit(1)
	}
}

func run(serverURL, configPath string, log *slog.Logger) error {
	var ds hsmcp.DataSource

	switch {
	case serverURL != "" && configPath != "":
		return fmt.Errorf("use either -server or -config, not both")
	case serverURL != "":
		c := client.New(serverURL)
		if err := c.Health(context.Background()); err != nil {
			return fmt.Errorf("server health check: %w", err)
		}
		log.Info("remote mode", "server", serverURL)
		ds = c
	case configPath != "":
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		db, err := storage.Open(context.Background(), cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
		log.Info("local mode", "driver", db.Driver())
		ds = hsmcp.NewLocal(db, log)
	default:
		return fmt.Errorf("one of -server or -config is required")
	}

	return server.ServeStdio(hsmcp.New(ds, Version, log))
}
