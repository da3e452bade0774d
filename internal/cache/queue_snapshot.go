package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ticketero/queue-service/internal/domain"
)

// SnapshotTicket is one waiting ticket inside a queue snapshot.
type SnapshotTicket struct {
	Number               string `json:"number"`
	Position             int    `json:"position"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

// QueueSnapshot is the per-class queue state published by the position
// engine on every tick and served by the public status endpoint.
type QueueSnapshot struct {
	Class                 domain.QueueClass `json:"class"`
	Waiting               int               `json:"waiting"`
	TotalEstimatedMinutes int               `json:"total_estimated_minutes"`
	NextNumber            string            `json:"next_number"`
	Tickets               []SnapshotTicket  `json:"tickets"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// QueueSnapshotCache stores queue snapshots in Redis with a short TTL, so
// a stalled engine never serves stale positions for long.
type QueueSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewQueueSnapshotCache builds the cache around an existing client.
func NewQueueSnapshotCache(client *redis.Client, ttl time.Duration) *QueueSnapshotCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QueueSnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(class domain.QueueClass) string {
	return fmt.Sprintf("queue:snapshot:%s", class)
}

// Put publishes the snapshot for one queue class.
func (c *QueueSnapshotCache) Put(ctx context.Context, snapshot *QueueSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(snapshot.Class), data, c.ttl).Err()
}

// Get returns the cached snapshot for a class, or nil on a cache miss.
func (c *QueueSnapshotCache) Get(ctx context.Context, class domain.QueueClass) (*QueueSnapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(class)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var snapshot QueueSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
