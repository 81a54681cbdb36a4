package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophguard/internal/buildinfo"
	"github.com/dmitrijs2005/gophguard/internal/cli"
	"github.com/dmitrijs2005/gophguard/internal/config"
	"github.com/dmitrijs2005/gophguard/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.NewTextLogger(os.Stderr, level)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
