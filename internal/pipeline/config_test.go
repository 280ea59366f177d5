package pipeline

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/drakos74/mnist-pipeline/infra/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5000, cfg.Data.Train)
	assert.Equal(t, 100, cfg.Data.Test)
	assert.Equal(t, 28, cfg.Data.Rows)
	assert.Equal(t, 28, cfg.Data.Cols)
	assert.Equal(t, 50, cfg.PCA.Components)
	assert.False(t, cfg.PCA.Whiten)
	assert.Equal(t, 2, cfg.TSNE.EmbeddingSize)
	assert.Equal(t, 50.0, cfg.TSNE.Perplexity)
	assert.Equal(t, 0.5, cfg.TSNE.ApproxThreshold)
	assert.Equal(t, 1000, cfg.TSNE.MaxIter)
	assert.Nil(t, cfg.TSNE.Seed)
	assert.Equal(t, 30.0, cfg.SVM.Bandwidth)
	assert.Equal(t, 0.9, cfg.Split)
	assert.Equal(t, "data/mnist.dat", cfg.Output)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(`{"data": {"trn_size": 1000}, "tsne": {"seed": 7}, "svm": {"bandwidth": 10}}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Data.Train)
	assert.Equal(t, 100, cfg.Data.Test)
	require.NotNil(t, cfg.TSNE.Seed)
	assert.Equal(t, int64(7), *cfg.TSNE.Seed)
	assert.Equal(t, 10.0, cfg.SVM.Bandwidth)
	assert.Equal(t, 1.0, cfg.SVM.C)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func withConfigPath(t *testing.T, path string) {
	previous := config.Path
	config.Path = path
	t.Cleanup(func() {
		config.Path = previous
	})
}

func TestLoadConfig_Shipped(t *testing.T) {
	withConfigPath(t, filepath.Join("..", "..", "infra", "config"))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestMustLoadConfig(t *testing.T) {
	dir := t.TempDir()
	withConfigPath(t, dir)

	assert.Panics(t, func() {
		MustLoadConfig()
	})

	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, ConfigKey+".json"), []byte(`{"split": 0.8, "forest": {"trees": 10}}`), 0644))
	cfg := MustLoadConfig()
	assert.Equal(t, 0.8, cfg.Split)
	assert.Equal(t, 10, cfg.Forest.Trees)
	assert.Equal(t, 30.0, cfg.SVM.Bandwidth)
}
