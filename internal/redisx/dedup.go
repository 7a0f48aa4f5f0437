package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Dedup registro de eventos procesados sobre Redis, con namespace por
// servicio. Las llaves expiran con TTLDedup.
type Dedup struct {
	rdb     *redis.Client
	service string
}

func NewDedup(rdb *redis.Client, service string) *Dedup {
	return &Dedup{rdb: rdb, service: service}
}

func (d *Dedup) key(eventID string) string {
	return fmt.Sprintf(KeyDedup, d.service, eventID)
}

// Seen indica si el evento ya fue marcado como procesado.
func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.rdb, d.key(eventID))
}

// Mark registra el evento como procesado.
func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	return d.rdb.Set(ctx, d.key(eventID), "1", TTLDedup).Err()
}
