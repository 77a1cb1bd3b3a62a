package market

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

const numShards = 16

// ShardedClientMap is a sharded map of pool clients to reduce lock contention
type ShardedClientMap struct {
	shards [numShards]clientShard
}

type clientShard struct {
	mu      sync.RWMutex
	clients map[solana.PublicKey]*PoolClient
}

func NewShardedClientMap() *ShardedClientMap {
	m := &ShardedClientMap{}
	for i := 0; i < numShards; i++ {
		m.shards[i].clients = make(map[solana.PublicKey]*PoolClient)
	}
	return m
}

func (m *ShardedClientMap) getShard(key solana.PublicKey) *clientShard {
	return &m.shards[key[0]%numShards]
}

func (m *ShardedClientMap) Get(key solana.PublicKey) (*PoolClient, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	c, ok := shard.clients[key]
	shard.mu.RUnlock()
	return c, ok
}

// LoadOrStore returns the existing client for key if present, otherwise stores c.
// loaded is true when an existing client was returned.
func (m *ShardedClientMap) LoadOrStore(key solana.PublicKey, c *PoolClient) (actual *PoolClient, loaded bool) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if existing, ok := shard.clients[key]; ok {
		return existing, true
	}
	shard.clients[key] = c
	return c, false
}

// Delete removes key only while it still maps to expected.
func (m *ShardedClientMap) Delete(key solana.PublicKey, expected *PoolClient) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.clients[key] != expected {
		return false
	}
	delete(shard.clients, key)
	return true
}

// Len returns total count across all shards
func (m *ShardedClientMap) Len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		total += len(m.shards[i].clients)
		m.shards[i].mu.RUnlock()
	}
	return total
}

// Range iterates over all clients (acquires locks per shard)
func (m *ShardedClientMap) Range(f func(key solana.PublicKey, c *PoolClient) bool) {
	for i := 0; i < numShards; i++ {
		m.shards[i].mu.RLock()
		for k, v := range m.shards[i].clients {
			if !f(k, v) {
				m.shards[i].mu.RUnlock()
				return
			}
		}
		m.shards[i].mu.RUnlock()
	}
}
