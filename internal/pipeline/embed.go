package pipeline

import (
	"context"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml/pca"
	"github.com/drakos74/mnist-pipeline/internal/report"
)

// Embed loads the training samples, projects them onto the principal components,
// embeds them with t-SNE, exports the embedding and launches the plot.
// The returned embedding is also written to the configured output file.
func (r *Runner) Embed(ctx context.Context, cfg Config) (*dataset.Dataset, error) {
	run := r.newRun("embed")

	var train *dataset.Dataset
	if err := run.stage("load", func() int { return train.Len() }, func() (err error) {
		train, _, err = dataset.Load(ctx, r.Source, cfg.Data)
		return err
	}); err != nil {
		return nil, err
	}

	var reduced *dataset.Dataset
	if err := run.stage("pca", func() int { return reduced.Len() }, func() error {
		projected, err := reduce(cfg.PCA, train)
		if err != nil {
			return err
		}
		reduced = projected[0]
		return nil
	}); err != nil {
		return nil, err
	}

	var embedding *dataset.Dataset
	if err := run.stage("tsne", func() int { return embedding.Len() }, func() (err error) {
		embedding, err = cfg.TSNE.TransformContext(ctx, reduced)
		return err
	}); err != nil {
		return nil, err
	}

	if err := run.stage("export", func() int { return embedding.Len() }, func() error {
		return report.ExportEmbedding(cfg.Output, embedding)
	}); err != nil {
		return nil, err
	}

	if r.Launcher != nil {
		if err := run.stage("plot", func() int { return 0 }, r.Launcher.Launch); err != nil {
			return embedding, err
		}
	}
	return embedding, nil
}

// reduce fits the projection on the training set and applies it to all the given datasets.
func reduce(p pca.Params, train *dataset.Dataset, others ...*dataset.Dataset) ([]*dataset.Dataset, error) {
	model, err := p.Fit(train)
	if err != nil {
		return nil, err
	}
	all := append([]*dataset.Dataset{train}, others...)
	reduced := make([]*dataset.Dataset, len(all))
	for i, ds := range all {
		reduced[i], err = model.Transform(ds)
		if err != nil {
			return nil, err
		}
	}
	return reduced, nil
}
