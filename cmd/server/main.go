package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/soaringjerry/devlevel/internal/config"
	"github.com/soaringjerry/devlevel/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type CLI struct {
	Config  string           `help:"YAML config file." type:"path" short:"c" env:"DEVLEVEL_CONFIG"`
	Debug   bool             `help:"Enable debug logging." env:"DEVLEVEL_DEBUG"`
	Version kong.VersionFlag `help:"Print version and exit."`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Run the HTTP API (default)."`
	Migrate MigrateCmd `cmd:"" help:"Apply database migrations and exit."`
}

type appContext struct {
	cfg    config.Config
	logger *log.Logger
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("devlevel"),
		kong.Description("Gamified progress tracking for developers."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	lg, closeLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Dir:    cfg.Log.Dir,
		Format: cfg.Log.Format,
		Debug:  cli.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = kctx.Run(&appContext{cfg: cfg, logger: lg})
	if cerr := closeLog(); cerr != nil {
		fmt.Fprintf(os.Stderr, "warning: close log: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
