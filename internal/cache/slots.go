// Package cache holds the Redis-backed slot listing cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/prod-golang-projects/medbook/internal/clock"
	"github.com/dmehra2102/prod-golang-projects/medbook/internal/scheduling"
)

// SlotCache keys listings by a per-doctor generation number:
//
//	slots:ver:{doctor}              generation counter
//	slots:{doctor}:{gen}:{date}     JSON list of slot starts
//
// Invalidate bumps the counter, orphaning every listing of the doctor; the
// orphans expire with their TTL. Set writes under the generation Get saw
// before the listing was computed, so a listing that raced an Invalidate
// lands on an orphaned key and is never read.
type SlotCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSlotCache(rdb redis.Cmdable, ttl time.Duration) *SlotCache {
	return &SlotCache{rdb: rdb, ttl: ttl}
}

func versionKey(doctorID uuid.UUID) string {
	return "slots:ver:" + doctorID.String()
}

func listingKey(doctorID uuid.UUID, gen int64, date time.Time) string {
	return fmt.Sprintf("slots:%s:%d:%s", doctorID, gen, date.Format(clock.DateLayout))
}

func (c *SlotCache) generation(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	gen, err := c.rdb.Get(ctx, versionKey(doctorID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *SlotCache) Get(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]scheduling.Slot, int64, bool, error) {
	gen, err := c.generation(ctx, doctorID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("reading slot generation: %w", err)
	}

	raw, err := c.rdb.Get(ctx, listingKey(doctorID, gen, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("reading slot listing: %w", err)
	}

	slots, err := decodeSlots(raw, date.Location())
	if err != nil {
		return nil, 0, false, err
	}
	return slots, gen, true, nil
}

// Set stores slots under gen, the generation returned by the Get that missed.
func (c *SlotCache) Set(ctx context.Context, doctorID uuid.UUID, date time.Time, gen int64, slots []scheduling.Slot) error {
	raw, err := encodeSlots(slots)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, listingKey(doctorID, gen, date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing slot listing: %w", err)
	}
	return nil
}

func (c *SlotCache) Invalidate(ctx context.Context, doctorID uuid.UUID) error {
	if err := c.rdb.Incr(ctx, versionKey(doctorID)).Err(); err != nil {
		return fmt.Errorf("bumping slot generation: %w", err)
	}
	return nil
}

func encodeSlots(slots []scheduling.Slot) ([]byte, error) {
	starts := make([]string, len(slots))
	for i, s := range slots {
		starts[i] = s.Start.Format(time.RFC3339)
	}
	raw, err := json.Marshal(starts)
	if err != nil {
		return nil, fmt.Errorf("encoding slots: %w", err)
	}
	return raw, nil
}

// decodeSlots restores slot starts in loc so labels print in clinic time.
func decodeSlots(raw []byte, loc *time.Location) ([]scheduling.Slot, error) {
	var starts []string
	if err := json.Unmarshal(raw, &starts); err != nil {
		return nil, fmt.Errorf("decoding slots: %w", err)
	}
	out := make([]scheduling.Slot, 0, len(starts))
	for _, s := range starts {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("decoding slot %q: %w", s, err)
		}
		out = append(out, scheduling.Slot{Start: t.In(loc)})
	}
	return out, nil
}
