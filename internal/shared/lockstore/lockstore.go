package lockstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// =============================================================================
// LockStore — 基于Redis的报价单级互斥锁
// SetNX + TTL实现，保证同一报价单同一时刻只有一个写入方；
// 释放时校验token，只有持有者能解锁
// =============================================================================

// ErrLocked 锁被其他写入方持有
var ErrLocked = errors.New("资源正被其他操作占用，请稍后重试")

// 释放锁的Lua脚本：token匹配才删除
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Store 互斥锁存储
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New 创建锁存储，ttl为锁的自动过期时间（防止持有者崩溃后死锁）
func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Store{client: client, ttl: ttl}
}

// Acquire 获取报价单锁，返回释放函数。
// 短暂轮询后仍未获取到则返回ErrLocked，调用方不应长时间阻塞。
func (s *Store) Acquire(ctx context.Context, quotationID string) (func(), error) {
	key := fmt.Sprintf("quote:lock:%s", quotationID)
	token := uuid.New().String()

	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, err := s.client.SetNX(ctx, key, token, s.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取锁失败: %w", err)
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				s.client.Eval(releaseCtx, releaseScript, []string{key}, token)
			}
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
