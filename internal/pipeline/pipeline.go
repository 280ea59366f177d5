package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/drakos74/mnist-pipeline/internal/metrics"
	"github.com/drakos74/mnist-pipeline/internal/mnist"
	"github.com/drakos74/mnist-pipeline/internal/storage"
	"github.com/drakos74/mnist-pipeline/internal/storage/file/json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Launcher starts a detached external process.
type Launcher interface {
	Launch() error
}

// Runner holds the collaborators shared by the pipelines.
type Runner struct {
	Source   mnist.Source
	Metrics  *metrics.Prometheus
	Store    storage.Persistence
	Launcher Launcher
	Out      io.Writer
}

// NewRunner wires the downloader, the optional corpus cache and result store, and the plotter from the config.
func NewRunner(cfg Config) *Runner {
	var source mnist.Source = mnist.NewDownloader(cfg.Corpus.BaseURL, cfg.Corpus.Dir)
	var store storage.Persistence = storage.NewVoidStorage()
	root := cfg.Storage
	if root != "" {
		store = json.NewJsonBlob(storage.RunTable, "results", true).WithRoot(root)
	} else {
		root = storage.DefaultDir
	}
	if cfg.Corpus.Cache {
		source = mnist.NewCached(source, json.NewJsonBlob(storage.CorpusTable, "mnist", true).WithRoot(root))
	}
	return &Runner{
		Source:   source,
		Metrics:  metrics.NewPrometheusMetrics(),
		Store:    store,
		Launcher: cfg.Plot,
		Out:      os.Stdout,
	}
}

// run tracks the stages of one pipeline execution.
type run struct {
	id      string
	name    string
	logger  zerolog.Logger
	metrics *metrics.Prometheus
}

func (r *Runner) newRun(name string) *run {
	id := uuid.New().String()
	return &run{
		id:      id,
		name:    name,
		logger:  log.With().Str("run", id).Str("pipeline", name).Logger(),
		metrics: r.Metrics,
	}
}

// stage executes one step of the pipeline, samples is the number of samples it processes.
func (r *run) stage(name string, samples func() int, exec func() error) error {
	start := time.Now()
	r.logger.Info().Str("stage", name).Msg("starting")
	if err := exec(); err != nil {
		r.logger.Error().Err(err).Str("stage", name).Msg("failed")
		return fmt.Errorf("%s stage failed: %w", name, err)
	}
	n := samples()
	if r.metrics != nil {
		r.metrics.Observe(r.name, name, start, n)
	}
	r.logger.Info().
		Str("stage", name).
		Int("samples", n).
		Dur("duration", time.Since(start)).
		Msg("done")
	return nil
}
