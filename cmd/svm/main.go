package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/drakos74/mnist-pipeline/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configPath = flag.String("config", "", "json file used instead of infra/config/pipeline.json")
	verbose    = flag.Bool("v", false, "debug logging")
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	flag.Parse()
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := pipeline.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	runner := pipeline.NewRunner(cfg)
	if cfg.MetricsPort > 0 {
		go func() {
			if err := runner.Metrics.Serve(ctx, cfg.MetricsPort); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	if _, err := runner.Classify(ctx, cfg, pipeline.SVM); err != nil {
		log.Fatal().Err(err).Msg("could not classify mnist")
	}
}
