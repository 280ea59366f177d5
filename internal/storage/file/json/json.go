package json

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/drakos74/mnist-pipeline/internal/storage"
	"github.com/rs/zerolog/log"
)

// BlobStorage stores every key as a json file under <path>/<table>/<shard>.
type BlobStorage struct {
	path  string
	table string
	shard string
	debug bool
}

// NewJsonBlob creates a new json file storage.
// table has the same schema
// shard is a logical split
func NewJsonBlob(table, shard string, debug bool) *BlobStorage {
	return &BlobStorage{
		table: table,
		shard: shard,
		path:  storage.DefaultDir,
		debug: debug,
	}
}

// WithRoot overrides the root directory of the storage.
func (s *BlobStorage) WithRoot(path string) *BlobStorage {
	s.path = path
	return s
}

func (s BlobStorage) Store(k storage.Key, value interface{}) error {
	p := filepath.Join(s.path, s.table, s.shard)
	err := Save(p, k.Path(), value)
	if err == nil && s.debug {
		log.Debug().Str("path", p).Str("file", k.Path()).Msg("stored json file")
	}
	return err
}

func (s BlobStorage) Load(k storage.Key, value interface{}) error {
	return Load(filepath.Join(s.path, s.table, s.shard), k.Path(), value)
}

// Save writes the value as indented json into <dir>/<name>.json, creating the directory if needed.
func Save(dir string, name string, value interface{}) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not make dir: %s: %w", dir, err)
	}
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode '%s': %w", name, err)
	}
	p := filepath.Join(dir, name+".json")
	if err := ioutil.WriteFile(p, b, 0644); err != nil {
		return fmt.Errorf("could not write '%s': %w", p, err)
	}
	return nil
}

// Load decodes <dir>/<name>.json into the value.
func Load(dir string, name string, value interface{}) error {
	p := filepath.Join(dir, name+".json")
	b, err := ioutil.ReadFile(p)
	if err != nil {
		return fmt.Errorf("could not read '%s': %s: %w", p, err.Error(), storage.NotFoundErr)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return fmt.Errorf("could not decode '%s': %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}
