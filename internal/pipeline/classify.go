package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml"
	"github.com/drakos74/mnist-pipeline/internal/ml/eval"
	"github.com/drakos74/mnist-pipeline/internal/ml/forest"
	"github.com/drakos74/mnist-pipeline/internal/ml/svm"
	"github.com/drakos74/mnist-pipeline/internal/mnist"
	"github.com/drakos74/mnist-pipeline/internal/report"
	"github.com/drakos74/mnist-pipeline/internal/storage"
)

const (
	SVM    = "svm"
	Forest = "forest"
)

// Trainer fits a classifier on a training set.
type Trainer func(ds *dataset.Dataset, cfg Config) (ml.Classifier, error)

var trainers = map[string]Trainer{
	SVM: func(ds *dataset.Dataset, cfg Config) (ml.Classifier, error) {
		return svm.Fit(ds, cfg.SVM)
	},
	Forest: func(ds *dataset.Dataset, cfg Config) (ml.Classifier, error) {
		return forest.Fit(ds, cfg.Forest)
	},
}

// Classify fits the named classifier on the training part of the split,
// reports its confusion matrix over the validation part and stores the result.
func (r *Runner) Classify(ctx context.Context, cfg Config, model string) (eval.Result, error) {
	trainer, ok := trainers[model]
	if !ok {
		return eval.Result{}, fmt.Errorf("unknown classifier %q", model)
	}
	run := r.newRun(model)

	var train, test *dataset.Dataset
	if err := run.stage("load", func() int { return train.Len() + test.Len() }, func() (err error) {
		train, test, err = dataset.Load(ctx, r.Source, cfg.Data)
		return err
	}); err != nil {
		return eval.Result{}, err
	}

	var split dataset.Split
	if err := run.stage("split", func() int { return train.Len() }, func() (err error) {
		if cfg.Shuffle != nil {
			train = train.Shuffle(*cfg.Shuffle)
		}
		split, err = train.Split(cfg.Split)
		return err
	}); err != nil {
		return eval.Result{}, err
	}

	if cfg.Reduce {
		if err := run.stage("pca", func() int { return train.Len() + test.Len() }, func() error {
			reduced, err := reduce(cfg.PCA, split.Train, split.Validation, test)
			if err != nil {
				return err
			}
			split.Train, split.Validation, test = reduced[0], reduced[1], reduced[2]
			return nil
		}); err != nil {
			return eval.Result{}, err
		}
	}

	var classifier ml.Classifier
	if err := run.stage("fit", func() int { return split.Train.Len() }, func() (err error) {
		if err := ctx.Err(); err != nil {
			return err
		}
		classifier, err = trainer(split.Train, cfg)
		return err
	}); err != nil {
		return eval.Result{}, err
	}

	var cm *eval.ConfusionMatrix
	if err := run.stage("validate", func() int { return split.Validation.Len() }, func() (err error) {
		cm, err = eval.Confusion(split.Validation.Labels(), ml.PredictAll(classifier, split.Validation), mnist.Digits)
		if err != nil {
			return err
		}
		return report.Classification(r.Out, fmt.Sprintf("%s validation (%d samples)", model, split.Validation.Len()), cm)
	}); err != nil {
		return eval.Result{}, err
	}

	if test.Len() > 0 {
		if err := run.stage("test", func() int { return test.Len() }, func() error {
			tcm, err := eval.Confusion(test.Labels(), ml.PredictAll(classifier, test), mnist.Digits)
			if err != nil {
				return err
			}
			run.logger.Info().
				Float64("accuracy", tcm.Accuracy()).
				Float64("mcc", tcm.MCC()).
				Msg("test set")
			return nil
		}); err != nil {
			return eval.Result{}, err
		}
	}

	result := eval.NewResult(run.id, model, split.Train.Len(), cm)
	if r.Metrics != nil {
		r.Metrics.Score(model, result.Accuracy)
	}
	if r.Store != nil {
		if err := r.Store.Store(storage.Key{
			Hash:  time.Now().Unix(),
			Set:   model,
			Label: run.id,
		}, result); err != nil {
			return result, fmt.Errorf("could not store result: %w", err)
		}
	}
	run.logger.Info().
		Float64("accuracy", result.Accuracy).
		Float64("mcc", result.MCC).
		Msg("classification done")
	return result, nil
}
