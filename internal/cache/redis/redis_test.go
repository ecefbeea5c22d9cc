package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/MSCMDD/ServerMarket/internal/domain"
)

// testClient connects to SERVERMARKET_TEST_REDIS_ADDR or skips.
func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("SERVERMARKET_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SERVERMARKET_TEST_REDIS_ADDR not set")
	}
	c, err := New(context.Background(), ClientConfig{Addr: addr, PoolSize: 4})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func uniqueKey(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func TestKeyNames(t *testing.T) {
	if got := lockKey("archive:listings"); got != "lock:archive:listings" {
		t.Errorf("lockKey = %q", got)
	}
	if got := rateLimitKey("1.2.3.4"); got != "ratelimit:1.2.3.4" {
		t.Errorf("rateLimitKey = %q", got)
	}
	b := NewPointsBridge(Wrap(redis.NewClient(&redis.Options{Addr: "localhost:0"})), "")
	if got := b.key(""); got != "points:default" {
		t.Errorf("points key = %q", got)
	}
	if got := b.key("gems"); got != "points:gems" {
		t.Errorf("points key = %q", got)
	}
}

func TestPointsBridge(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	b := NewPointsBridge(c, uniqueKey("test-points"))
	t.Cleanup(func() { c.Underlying().Del(context.Background(), b.key("gems")) })

	if bal, err := b.Balance(ctx, "p1", "gems"); err != nil || !bal.IsZero() {
		t.Fatalf("empty balance = %s, %v", bal, err)
	}
	if err := b.Deposit(ctx, "p1", "gems", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	ok, err := b.Debit(ctx, "p1", "gems", decimal.RequireFromString("2.5"))
	if err != nil || !ok {
		t.Fatalf("Debit = %t, %v", ok, err)
	}
	bal, _ := b.Balance(ctx, "p1", "gems")
	if !bal.Equal(decimal.NewFromInt(7)) {
		t.Errorf("balance = %s, want 7 (2.5 rounds up)", bal)
	}

	ok, err = b.Debit(ctx, "p1", "gems", decimal.NewFromInt(8))
	if err != nil || ok {
		t.Errorf("overdraw = %t, %v", ok, err)
	}
	if _, err := b.Debit(ctx, "p1", "gems", decimal.Zero); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero debit err = %v", err)
	}
}

func TestLockManager(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	lm := NewLockManager(c)
	key := uniqueKey("test-lock")

	release, err := lm.Acquire(ctx, key, 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := lm.Acquire(ctx, key, 10*time.Second); !errors.Is(err, domain.ErrLockHeld) {
		t.Fatalf("second Acquire err = %v, want ErrLockHeld", err)
	}
	release()
	release()

	again, err := lm.Acquire(ctx, key, 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	again()
}

func TestRateLimiter(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	rl := NewRateLimiter(c)
	key := uniqueKey("test-rl")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d = %t, %v", i, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
		t.Errorf("fourth request allowed")
	}
	if ok, _ := rl.Allow(ctx, key, 0, time.Minute); !ok {
		t.Errorf("zero limit should disable limiting")
	}
}

func TestSignalBus_PublishSubscribe(t *testing.T) {
	c := testClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := NewSignalBus(c, 100)
	channel := uniqueKey("test-bus")

	sub, err := bus.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := bus.Publish(ctx, channel, []byte(`{"id":"a"}`)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-sub:
		if string(msg) != `{"id":"a"}` {
			t.Errorf("payload = %s", msg)
		}
	case <-ctx.Done():
		t.Fatal("no message received")
	}

	stream := uniqueKey("test-stream")
	t.Cleanup(func() { c.Underlying().Del(context.Background(), stream) })
	if err := bus.StreamAppend(ctx, stream, []byte("x")); err != nil {
		t.Fatalf("StreamAppend: %v", err)
	}
	if n, _ := c.Underlying().XLen(ctx, stream).Result(); n != 1 {
		t.Errorf("stream length = %d, want 1", n)
	}
}
