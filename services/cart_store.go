package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-order/cart"
)

// CartStore keeps one cart per table between requests.
type CartStore interface {
	Load(ctx context.Context, table int) (*cart.Cart, error)
	Save(ctx context.Context, table int, c *cart.Cart) error
	Clear(ctx context.Context, table int) error
}

// MemoryCartStore is the single-process default.
type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[int]cart.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[int]cart.Cart)}
}

func (m *MemoryCartStore) Load(_ context.Context, table int) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[table]
	if !ok {
		return cart.New(), nil
	}
	lines := append([]cart.Line{}, c.Lines...)
	return &cart.Cart{Lines: lines}, nil
}

func (m *MemoryCartStore) Save(_ context.Context, table int, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[table] = cart.Cart{Lines: append([]cart.Line{}, c.Lines...)}
	return nil
}

func (m *MemoryCartStore) Clear(_ context.Context, table int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, table)
	return nil
}

// RedisCartStore shares carts between instances. Carts expire after TTL of
// inactivity.
type RedisCartStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{Client: client, TTL: ttl}
}

func cartKey(table int) string {
	return fmt.Sprintf("table-order:cart:%d", table)
}

func (r *RedisCartStore) Load(ctx context.Context, table int) (*cart.Cart, error) {
	data, err := r.Client.Get(ctx, cartKey(table)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: redis get: %w", err)
	}
	c := cart.New()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("cart: decode table %d: %w", table, err)
	}
	return c, nil
}

func (r *RedisCartStore) Save(ctx context.Context, table int, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, cartKey(table), data, r.TTL).Err(); err != nil {
		return fmt.Errorf("cart: redis set: %w", err)
	}
	return nil
}

func (r *RedisCartStore) Clear(ctx context.Context, table int) error {
	if err := r.Client.Del(ctx, cartKey(table)).Err(); err != nil {
		return fmt.Errorf("cart: redis del: %w", err)
	}
	return nil
}

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cart: redis ping: %w", err)
	}
	return client, nil
}
