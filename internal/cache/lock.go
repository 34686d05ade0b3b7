package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotAcquired 表示在 context 結束前無法取得鎖
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock 釋放已取得的鎖
type Unlock func(ctx context.Context) error

// Locker 以 key 序列化寫入
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker 以 SET NX PX 實作跨行程鎖；釋放時比對 token，避免刪掉別人的鎖
type RedisLocker struct {
	c     Cache
	ttl   time.Duration
	retry time.Duration
}

func NewRedisLocker(c Cache, ttl time.Duration) *RedisLocker {
	return &RedisLocker{c: c, ttl: ttl, retry: 25 * time.Millisecond}
}

func lockKey(key string) string { return "lock:" + key }

// newToken 測試可覆寫
var newToken = func() string { return uuid.NewString() }

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	k := lockKey(key)
	token := newToken()
	for {
		ok, err := l.c.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("RedisLocker.Lock: %w", err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}
	}

	return func(ctx context.Context) error {
		if err := l.c.Eval(ctx, releaseScript, []string{k}, token).Err(); err != nil {
			return fmt.Errorf("RedisLocker.Unlock: %w", err)
		}
		return nil
	}, nil
}

// LocalLocker 是單一行程內的 keyed mutex，給 memory 後端使用
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
		return nil
	}, nil
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
