package redisx

import "time"

const (
	// Dedup de eventos consumidos: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
