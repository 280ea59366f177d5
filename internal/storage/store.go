package storage

import (
	"errors"
	"fmt"
)

const (
	CorpusTable = "corpus"
	RunTable    = "runs"
)

// DefaultDir is the storage root unless a store is given its own with WithRoot.
var DefaultDir = "file-storage"

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key for a stored item.
type Key struct {
	Hash  int64  `json:"hash"`
	Set   string `json:"set"`
	Label string `json:"label"`
}

// Path returns the file name for the key.
func (k Key) Path() string {
	return fmt.Sprintf("%s_%v_%s", k.Set, k.Hash, k.Label)
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
