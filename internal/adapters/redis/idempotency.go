package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idempotency stores HTTP responses keyed by the client's
// Idempotency-Key, so a retried take-ticket or call-next replays the
// original outcome instead of issuing a second number.
type Idempotency struct {
	client *redis.Client
}

func NewIdempotency(client *redis.Client) *Idempotency {
	return &Idempotency{client: client}
}

func replayKey(key string) string {
	return "queue:replay:" + key
}

// IdempResponse is the stored status and body of a completed request.
type IdempResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Get returns the stored response for the key, or nil on a miss.
func (i *Idempotency) Get(ctx context.Context, key string) (*IdempResponse, error) {
	val, err := i.client.Get(ctx, replayKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var resp IdempResponse
	err = json.Unmarshal(val, &resp)
	return &resp, err
}

func (i *Idempotency) Set(ctx context.Context, key string, resp IdempResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return i.client.Set(ctx, replayKey(key), data, ttl).Err()
}
