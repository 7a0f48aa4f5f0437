package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// New construye el cliente Redis para dedup de eventos.
func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Exists indica si la llave existe.
func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}
