package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ghostpaste/internal/buildinfo"
	"github.com/dmitrijs2005/ghostpaste/internal/cli"
	"github.com/dmitrijs2005/ghostpaste/internal/config"
	"github.com/dmitrijs2005/ghostpaste/internal/flagx"
	"github.com/dmitrijs2005/ghostpaste/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	args := flagx.StripArgs(os.Args[1:], config.FlagNames())
	if len(args) > 0 && args[0] == "version" {
		buildinfo.PrintBuildData(os.Stdout)
		return 0
	}

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.NewWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer app.Close()

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return cli.ExitCode(err)
	}
	return 0
}
