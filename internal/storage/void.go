package storage

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// VoidStorage discards every value, it stands in when no result directory is configured.
type VoidStorage struct{}

// NewVoidStorage creates a storage that keeps nothing.
func NewVoidStorage() *VoidStorage {
	return &VoidStorage{}
}

func (VoidStorage) Store(k Key, _ interface{}) error {
	log.Debug().Str("key", k.Path()).Msg("discarding value")
	return nil
}

func (VoidStorage) Load(k Key, _ interface{}) error {
	return fmt.Errorf("nothing is kept for '%s': %w", k.Path(), NotFoundErr)
}
