package domain

import (
	"encoding/json"
	"time"
)

// IdempotencyRecord caches the response of an executed mutation keyed by
// (Key, PrincipalID, Endpoint). A replay of the same triple before expiry
// returns the cached response verbatim.
type IdempotencyRecord struct {
	Key         string
	PrincipalID uint
	Endpoint    string
	Status      int
	Body        json.RawMessage
	CreatedAt   time.Time
}
