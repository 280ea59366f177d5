package json

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/drakos74/mnist-pipeline/internal/storage"
)

// LocalStorage keeps the encoded values in memory.
type LocalStorage struct {
	mutex  *sync.RWMutex
	values map[storage.Key][]byte
}

// NewLocalStorage creates a new in-memory json storage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		mutex:  new(sync.RWMutex),
		values: make(map[storage.Key][]byte),
	}
}

func (l *LocalStorage) Store(k storage.Key, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not encode '%s': %w", k.Path(), err)
	}
	l.mutex.Lock()
	l.values[k] = b
	l.mutex.Unlock()
	return nil
}

func (l *LocalStorage) Load(k storage.Key, value interface{}) error {
	l.mutex.RLock()
	b, ok := l.values[k]
	l.mutex.RUnlock()
	if !ok {
		return fmt.Errorf("'%s': %w", k.Path(), storage.NotFoundErr)
	}
	if err := json.Unmarshal(b, value); err != nil {
		return fmt.Errorf("could not decode '%s': %s: %w", k.Path(), err.Error(), storage.CouldNotLoadErr)
	}
	return nil
}

// Keys returns the stored keys ordered by path.
func (l *LocalStorage) Keys() []storage.Key {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	keys := make([]storage.Key, 0, len(l.values))
	for k := range l.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Path() < keys[j].Path()
	})
	return keys
}
