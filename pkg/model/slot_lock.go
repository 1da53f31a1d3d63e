package model

import "time"

// SlotLock is an advisory lock on a (date, time) slot, held for the duration
// of a booking write. A TTL index on ExpiresAt reaps stale locks.
type SlotLock struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
}
