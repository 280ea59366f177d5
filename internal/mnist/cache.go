package mnist

import (
	"context"
	"fmt"

	"github.com/drakos74/mnist-pipeline/internal/storage"
	"github.com/rs/zerolog/log"
)

// Cached keeps the buffers of every fetched request in the given storage,
// so that repeated runs with the same sizes skip the extraction.
type Cached struct {
	source Source
	store  storage.Persistence
}

// NewCached wraps the source with a storage backed cache.
func NewCached(source Source, store storage.Persistence) *Cached {
	return &Cached{
		source: source,
		store:  store,
	}
}

func cacheKey(req Request) storage.Key {
	return storage.Key{
		Hash:  int64(req.Train),
		Set:   "mnist",
		Label: fmt.Sprintf("%d_%v", req.Test, req.OneHot),
	}
}

func (c *Cached) Fetch(ctx context.Context, req Request) (*Buffers, error) {
	k := cacheKey(req)
	buffers := new(Buffers)
	if err := c.store.Load(k, buffers); err == nil {
		log.Debug().Str("key", k.Path()).Msg("corpus loaded from cache")
		return buffers, nil
	} else {
		log.Debug().Err(err).Str("key", k.Path()).Msg("corpus not in cache")
	}

	buffers, err := c.source.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.store.Store(k, buffers); err != nil {
		log.Warn().Err(err).Str("key", k.Path()).Msg("could not cache corpus")
	}
	return buffers, nil
}
