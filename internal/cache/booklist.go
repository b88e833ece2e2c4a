// Package cache はRedisを使用した読み取りキャッシュを提供する。
//
// キャッシュはベストエフォートであり、Redisの障害は読み取り経路を
// 劣化させるだけで、機能自体は永続化層のみで成立する。
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/bookman/internal/model"
)

// BookListCache はユーザーごとの可視ブック一覧をTTL付きでキャッシュする。
// ブックや共同編集者関係の変更時に該当ユーザーのエントリを無効化する。
type BookListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewBookListCache はBookListCacheを生成する。
func NewBookListCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *BookListCache {
	return &BookListCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// cacheKey はユーザーIDからキャッシュキーを生成する。
func cacheKey(userID string) string {
	return fmt.Sprintf("booklist:%s", userID)
}

// Get はユーザーのキャッシュ済みブック一覧を返す。
// ミスまたはRedis障害の場合は (nil, false) を返す。
func (c *BookListCache) Get(ctx context.Context, userID string) ([]*model.Book, bool) {
	data, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("book list cache read failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	var books []*model.Book
	if err := json.Unmarshal(data, &books); err != nil {
		// 壊れたエントリは読み捨てる。TTLで自然に消える。
		c.logger.Warn("book list cache entry corrupted",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return books, true
}

// Set はユーザーのブック一覧をTTL付きで保存する。失敗はログのみ。
func (c *BookListCache) Set(ctx context.Context, userID string, books []*model.Book) {
	data, err := json.Marshal(books)
	if err != nil {
		c.logger.Warn("book list cache marshal failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, cacheKey(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("book list cache write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate は指定ユーザーのキャッシュエントリを削除する。失敗はログのみ。
func (c *BookListCache) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = cacheKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("book list cache invalidation failed",
			slog.Int("keys", len(keys)),
			slog.String("error", err.Error()),
		)
	}
}
