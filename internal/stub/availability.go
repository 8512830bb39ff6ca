package stub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/example/driversync/internal/models"
)

// AvailabilityStore keeps driver availability rows per calendar date. Rows
// are append-only on purpose: the real backend stacks a new row for every
// submission, which is exactly what makes client-side de-duplication
// necessary, and the stub has to reproduce that.
type AvailabilityStore interface {
	Add(ctx context.Context, rec models.AvailabilityRecord) error
	ListByDate(ctx context.Context, date string) ([]models.AvailabilityRecord, error)
}

type MemoryAvailability struct {
	mu     sync.Mutex
	nextID int
	byDate map[string][]models.AvailabilityRecord
}

func NewMemoryAvailability() *MemoryAvailability {
	return &MemoryAvailability{nextID: 1, byDate: make(map[string][]models.AvailabilityRecord)}
}

func (m *MemoryAvailability) Add(ctx context.Context, rec models.AvailabilityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.AvailabilityID = m.nextID
	m.nextID++
	m.byDate[rec.Date] = append(m.byDate[rec.Date], rec)
	return nil
}

func (m *MemoryAvailability) ListByDate(ctx context.Context, date string) ([]models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AvailabilityRecord(nil), m.byDate[date]...), nil
}

// RedisAvailability stores the rows as a Redis list per date so insertion
// order (and duplicates) survive restarts of the stub.
type RedisAvailability struct {
	client *redis.Client
}

func NewRedisAvailability(addr, password string) *RedisAvailability {
	return &RedisAvailability{client: redis.NewClient(&redis.Options{Addr: addr, Password: password})}
}

func availabilityKey(date string) string { return "availability:" + date }

func (r *RedisAvailability) Add(ctx context.Context, rec models.AvailabilityRecord) error {
	id, err := r.client.Incr(ctx, "availability:next_id").Result()
	if err != nil {
		return err
	}
	rec.AvailabilityID = int(id)
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, availabilityKey(rec.Date), b).Err()
}

func (r *RedisAvailability) ListByDate(ctx context.Context, date string) ([]models.AvailabilityRecord, error) {
	vals, err := r.client.LRange(ctx, availabilityKey(date), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.AvailabilityRecord, 0, len(vals))
	for _, v := range vals {
		var rec models.AvailabilityRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
