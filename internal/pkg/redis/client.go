// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client 封装了 go-redis 客户端，统一连接与常用操作。
type Client struct {
	rdb *redis.Client
}

// NewClient 创建并校验一个 Redis 连接。
func NewClient(ctx context.Context, addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端，供需要 pipeline 等高级操作的调用方使用。
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Del 删除一个或多个 key。
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// DelByPattern 按模式扫描并删除 key。用于整体失效某一类缓存。
func (c *Client) DelByPattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		// 分批删除，避免单条 DEL 命令过大
		if len(keys) >= 128 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.rdb.Del(ctx, keys...).Err()
	}
	return nil
}

// Close 关闭连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
