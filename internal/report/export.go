package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/drakos74/mnist-pipeline/internal/dataset"
	"github.com/rs/zerolog/log"
)

// DefaultEmbeddingFile is where the embedding is exported for the plot script.
const DefaultEmbeddingFile = "data/mnist.dat"

// ExportEmbedding writes one "<x> <y> <label>" line per sample,
// using the first two columns of the embedding.
// An existing file is overwritten.
func ExportEmbedding(path string, ds *dataset.Dataset) error {
	if ds.Len() > 0 && ds.Dim() < 2 {
		return fmt.Errorf("cannot export %d dimensional embedding: %w", ds.Dim(), dataset.ShapeErr)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create file %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	buf := make([]byte, 0, 64)
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		buf = buf[:0]
		buf = strconv.AppendFloat(buf, row[0], 'g', -1, 64)
		buf = append(buf, ' ')
		buf = strconv.AppendFloat(buf, row[1], 'g', -1, 64)
		buf = append(buf, ' ')
		buf = strconv.AppendUint(buf, uint64(ds.Label(i)), 10)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("could not write to %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("could not write to %s: %w", path, err)
	}
	log.Info().Str("file", path).Int("samples", ds.Len()).Msg("exported embedding")
	return f.Close()
}
