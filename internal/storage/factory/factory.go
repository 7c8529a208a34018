package factory

import (
	"context"

	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/ApexAxiom/briefwire/internal/storage/pg"
)

// NewStore builds the durable store for the configured backend. Postgres is
// the only full Store backend; Elasticsearch serves as a downstream archive
// index only (see the es package) because the pipeline's day-key range reads
// are relational.
func NewStore(ctx context.Context, storeType storage.Type, cfg pg.PoolConfig) (storage.Store, error) {
	switch storeType {
	case storage.PG:
		pool, err := pg.NewConnectionPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return pg.NewStore(ctx, pool)
	default:
		return nil, storage.ErrUnsupportedStore
	}
}
