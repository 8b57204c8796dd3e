package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// fakeRedisKV guarda valores en un mapa; err, si está puesto, hace fallar
// cualquier comando.
type fakeRedisKV struct {
	mu   sync.Mutex
	vals map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeRedisKV() *fakeRedisKV {
	return &fakeRedisKV{vals: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedisKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[key] = value.(string)
	f.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedisKV) GetDel(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vals[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	delete(f.vals, key)
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedisKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.vals[k]; ok {
			delete(f.vals, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestMemoryRefreshTokenStore_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshTokenStore()

	if err := store.Store(ctx, "jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("store: %v", err)
	}
	owner, ok, err := store.Consume(ctx, " jti-1 ")
	if err != nil || !ok || owner != "u1" {
		t.Fatalf("expected u1 on first consume, got %q %v %v", owner, ok, err)
	}
	if _, ok, _ := store.Consume(ctx, "jti-1"); ok {
		t.Fatalf("expected second consume to miss")
	}
}

func TestMemoryRefreshTokenStore_ExpiredAndRevoked(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &memoryRefreshTokenStore{items: map[string]refreshEntry{}, now: func() time.Time { return base }}

	_ = store.Store(ctx, "old", "u1", time.Minute)
	_ = store.Store(ctx, "revoked", "u1", time.Hour)
	_ = store.Revoke(ctx, "revoked")

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok, _ := store.Consume(ctx, "old"); ok {
		t.Fatalf("expected expired token to miss")
	}
	if _, ok, _ := store.Consume(ctx, "revoked"); ok {
		t.Fatalf("expected revoked token to miss")
	}

	_ = store.Store(ctx, "", "u1", time.Minute)
	_ = store.Store(ctx, "fresh", "u2", time.Minute)
	if len(store.items) != 1 {
		t.Fatalf("expected empty jti ignored and stale entries swept, got %d items", len(store.items))
	}
}

func TestMemoryRefreshTokenStore_ConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshTokenStore()
	_ = store.Store(ctx, "jti", "u1", time.Minute)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := store.Consume(ctx, "jti"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestRedisRefreshTokenStore(t *testing.T) {
	ctx := context.Background()
	kv := newFakeRedisKV()
	store := &redisRefreshTokenStore{client: kv, prefix: "chat:refresh:"}

	if err := store.Store(ctx, " j1 ", "u1", 0); err != nil {
		t.Fatalf("store: %v", err)
	}
	if kv.ttls["chat:refresh:j1"] != defaultRefreshTTL {
		t.Fatalf("expected default ttl on key, got %v", kv.ttls)
	}

	owner, ok, err := store.Consume(ctx, "j1")
	if err != nil || !ok || owner != "u1" {
		t.Fatalf("expected u1, got %q %v %v", owner, ok, err)
	}
	if _, ok, err := store.Consume(ctx, "j1"); ok || err != nil {
		t.Fatalf("expected redis.Nil to read as a miss, got %v %v", ok, err)
	}

	_ = store.Store(ctx, "j2", "u1", time.Minute)
	if err := store.Revoke(ctx, "j2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, ok, _ := store.Consume(ctx, "j2"); ok {
		t.Fatalf("expected revoked token to miss")
	}
}

func TestRedisRefreshTokenStore_Errors(t *testing.T) {
	ctx := context.Background()
	kv := newFakeRedisKV()
	kv.err = errors.New("connection refused")
	store := &redisRefreshTokenStore{client: kv, prefix: "chat:refresh:"}

	if err := store.Store(ctx, "", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti should be a no-op, got %v", err)
	}
	if err := store.Store(ctx, "j1", "u1", time.Minute); err == nil {
		t.Fatalf("expected store error")
	}
	if _, _, err := store.Consume(ctx, "j1"); err == nil {
		t.Fatalf("expected consume error")
	}
	if err := store.Revoke(ctx, "j1"); err == nil {
		t.Fatalf("expected revoke error")
	}
}
