package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecauth/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// 確認コード再送の間隔をRedisで見る。DB側のReplaceUnlessRecentの手前に置く。
type RedisResendThrottle struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisResendThrottle(rdb *redis.Client) *RedisResendThrottle {
	return &RedisResendThrottle{rdb: rdb, prefix: "ecauth:resend"}
}

// REDIS_URLからクライアントを作って疎通を確認する
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (t *RedisResendThrottle) key(email string, purpose model.CodePurpose) string {
	return t.prefix + ":" + string(purpose) + ":" + strings.ToLower(email)
}

// window内で最初の1回だけtrue（SET NX PX）
func (t *RedisResendThrottle) Acquire(ctx context.Context, email string, purpose model.CodePurpose, window time.Duration) (bool, error) {
	return t.rdb.SetNX(ctx, t.key(email, purpose), "1", window).Result()
}

// 無条件に窓を開始する（登録直後など）
func (t *RedisResendThrottle) Mark(ctx context.Context, email string, purpose model.CodePurpose, window time.Duration) error {
	return t.rdb.Set(ctx, t.key(email, purpose), "1", window).Err()
}

// 発行に失敗したときに窓を戻す
func (t *RedisResendThrottle) Release(ctx context.Context, email string, purpose model.CodePurpose) error {
	return t.rdb.Del(ctx, t.key(email, purpose)).Err()
}
