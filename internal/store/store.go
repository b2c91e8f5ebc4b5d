package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/suPer8Hu/agent-chat/internal/config"
	"github.com/suPer8Hu/agent-chat/internal/db"
	"github.com/suPer8Hu/agent-chat/internal/store/badgerstore"
	"github.com/suPer8Hu/agent-chat/internal/store/boltstore"
	"github.com/suPer8Hu/agent-chat/internal/store/redisstore"
	"github.com/suPer8Hu/agent-chat/internal/store/sqlstore"
)

// KV is the string key/value substrate the history ledger persists into.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Type string

const (
	TypeMemory Type = "memory"
	TypeSQL    Type = "sql"
	TypeRedis  Type = "redis"
	TypeBadger Type = "badger"
	TypeBolt   Type = "bolt"
)

var ErrInvalidStoreType = errors.New("invalid store type")

// Open builds the substrate selected by cfg.HistoryStore.
func Open(ctx context.Context, cfg config.Config) (KV, error) {
	t := Type(strings.ToLower(strings.TrimSpace(cfg.HistoryStore)))
	switch t {
	case TypeMemory:
		return NewMemory(), nil

	case TypeSQL:
		gdb, err := db.Connect(cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		s := sqlstore.New(gdb)
		if err := s.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate kv table: %w", err)
		}
		return s, nil

	case TypeRedis:
		s, err := redisstore.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil

	case TypeBadger:
		s, err := badgerstore.Open(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		return s, nil

	case TypeBolt:
		s, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, cfg.HistoryStore)
	}
}

// MustOpen is Open for process startup.
func MustOpen(ctx context.Context, cfg config.Config) KV {
	kv, err := Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open history store type=%s: %v", cfg.HistoryStore, err)
	}
	log.Printf("[Store] history store ready type=%s", cfg.HistoryStore)
	return kv
}

// Memory keeps values in process memory. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
