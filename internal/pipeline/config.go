package pipeline

import (
	"github.com/drakos74/mnist-pipeline/infra/config"
	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/drakos74/mnist-pipeline/internal/ml/forest"
	"github.com/drakos74/mnist-pipeline/internal/ml/pca"
	"github.com/drakos74/mnist-pipeline/internal/ml/svm"
	"github.com/drakos74/mnist-pipeline/internal/ml/tsne"
	"github.com/drakos74/mnist-pipeline/internal/mnist"
	"github.com/drakos74/mnist-pipeline/internal/report"
)

// Corpus defines where the mnist files come from.
type Corpus struct {
	BaseURL string `json:"base_url"`
	Dir     string `json:"dir"`
	// Cache keeps the fetched buffers in the json store under Config.Storage.
	Cache bool `json:"cache"`
}

// Config holds the parameters of the embedding and the classification pipelines.
type Config struct {
	Data   dataset.LoadConfig `json:"data"`
	Corpus Corpus             `json:"corpus"`
	PCA    pca.Params         `json:"pca"`
	TSNE   tsne.Params        `json:"tsne"`
	SVM    svm.Params         `json:"svm"`
	Forest forest.Params      `json:"forest"`
	// Split is the share of the training samples the classifiers are fitted on,
	// the rest is used for validation.
	Split float64 `json:"split"`
	// Shuffle shuffles the training samples with the given seed before the split.
	Shuffle *int64 `json:"shuffle,omitempty"`
	// Reduce applies the pca projection before the classifiers.
	Reduce bool            `json:"reduce"`
	Output string          `json:"output"`
	Plot   report.Plotter `json:"plot"`
	// Storage is the root directory for the run results, empty disables storing them.
	Storage     string `json:"storage"`
	MetricsPort int    `json:"metrics_port"`
}

// DefaultConfig returns the parameters of the reference mnist runs.
func DefaultConfig() Config {
	return Config{
		Data: dataset.LoadConfig{
			Train: 5000,
			Test:  100,
			Rows:  mnist.Rows,
			Cols:  mnist.Cols,
		},
		Corpus: Corpus{
			BaseURL: mnist.DefaultBaseURL,
			Dir:     mnist.DefaultDir,
		},
		PCA: pca.Params{
			Components: 50,
			Whiten:     false,
		},
		TSNE:   tsne.DefaultParams(),
		SVM:    svm.DefaultParams(),
		Forest: forest.DefaultParams(),
		Split:  0.9,
		Output: report.DefaultEmbeddingFile,
		Plot:   report.DefaultPlotter(),
	}
}

// ConfigKey names the shipped config under infra/config.
const ConfigKey = "pipeline"

// MustLoadConfig overlays the shipped config onto the defaults.
// It panics if the shipped config cannot be read.
func MustLoadConfig() Config {
	cfg := DefaultConfig()
	config.MustLoad(ConfigKey, &cfg)
	return cfg
}

// LoadConfig overlays the json file at path onto the default config.
// An empty path falls back to the shipped config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return MustLoadConfig(), nil
	}
	cfg := DefaultConfig()
	if err := config.Load(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
