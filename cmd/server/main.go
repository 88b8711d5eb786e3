package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/ghostpaste/internal/buildinfo"
	"github.com/dmitrijs2005/ghostpaste/internal/config"
	"github.com/dmitrijs2005/ghostpaste/internal/logging"
	"github.com/dmitrijs2005/ghostpaste/internal/server"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
