package market

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hxuan190/dlmm-gateway/internal/metrics"
)

type RegistryOptions struct {
	// MaxClients bounds the registry; the least recently accessed client is evicted past it.
	MaxClients int
	// OnCreate and OnEvict run under the registry's admission lock and must not
	// call back into the registry.
	OnCreate func(*PoolClient)
	OnEvict  func(*PoolClient)
}

// Registry maps pool addresses to their single PoolClient.
type Registry struct {
	clients  *ShardedClientMap
	ledger   Ledger
	factory  EngineFactory
	opts     RegistryOptions
	creating singleflight.Group
	// admitMu serializes insert, OnCreate and eviction so a client is never
	// evicted before its OnCreate has run.
	admitMu sync.Mutex
}

func NewRegistry(ledger Ledger, factory EngineFactory, opts RegistryOptions) *Registry {
	return &Registry{
		clients: NewShardedClientMap(),
		ledger:  ledger,
		factory: factory,
		opts:    opts,
	}
}

// GetOrCreate returns the client for key, creating it on first use. Concurrent
// callers for the same key share one creation fetch and receive the same client.
// A failed creation leaves no entry behind.
func (r *Registry) GetOrCreate(ctx context.Context, key solana.PublicKey) (*PoolClient, error) {
	if c, ok := r.clients.Get(key); ok {
		c.touch()
		return c, nil
	}

	// Creation outlives any single caller so one cancelled request cannot fail the others.
	ch := r.creating.DoChan(key.String(), func() (interface{}, error) {
		return r.create(context.WithoutCancel(ctx), key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		c := res.Val.(*PoolClient)
		c.touch()
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) create(ctx context.Context, key solana.PublicKey) (*PoolClient, error) {
	if c, ok := r.clients.Get(key); ok {
		return c, nil
	}

	engine, err := r.factory(ctx, key)
	if err != nil {
		metrics.PoolClientCreations.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("pair", key.String()).Msg("[Registry] pool client creation failed")
		return nil, err
	}

	client := NewPoolClient(key, engine, r.ledger)

	r.admitMu.Lock()
	defer r.admitMu.Unlock()

	actual, loaded := r.clients.LoadOrStore(key, client)
	if loaded {
		return actual, nil
	}

	metrics.PoolClientCreations.WithLabelValues("ok").Inc()
	log.Info().Str("pair", key.String()).Msg("[Registry] pool client created")

	if r.opts.OnCreate != nil {
		r.opts.OnCreate(client)
	}
	r.evictOverflow(key)
	return client, nil
}

func (r *Registry) Get(key solana.PublicKey) (*PoolClient, bool) {
	return r.clients.Get(key)
}

func (r *Registry) Len() int {
	return r.clients.Len()
}

// Clients returns a snapshot of all registered clients.
func (r *Registry) Clients() []*PoolClient {
	out := make([]*PoolClient, 0, r.clients.Len())
	r.clients.Range(func(_ solana.PublicKey, c *PoolClient) bool {
		out = append(out, c)
		return true
	})
	return out
}

// evictOverflow must be called with admitMu held.
func (r *Registry) evictOverflow(keep solana.PublicKey) {
	for r.opts.MaxClients > 0 && r.clients.Len() > r.opts.MaxClients {
		var victim *PoolClient
		r.clients.Range(func(k solana.PublicKey, c *PoolClient) bool {
			if k != keep && (victim == nil || c.lastAccessed() < victim.lastAccessed()) {
				victim = c
			}
			return true
		})
		if victim == nil {
			break
		}
		if r.clients.Delete(victim.Key(), victim) {
			metrics.PoolClientEvictions.Inc()
			log.Info().Str("pair", victim.Key().String()).Msg("[Registry] pool client evicted")
			if r.opts.OnEvict != nil {
				r.opts.OnEvict(victim)
			}
		}
	}
	metrics.PoolClientCount.Set(float64(r.clients.Len()))
}
