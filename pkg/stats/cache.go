package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Cache caches the stats of a team in Redis. All stats of a team are kept in one hash, one field
// per number of recent events, so they can be invalidated at once. Every invalidation increments the
// generation of the team. Stats computed before an invalidation are therefore never cached after it.
// A Cache without client or ttl caches nothing.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func key(teamID uuid.UUID) string {
	return "stats:" + teamID.String()
}

func generationKey(teamID uuid.UUID) string {
	return "stats:generation:" + teamID.String()
}

func generation(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Generation returns the current generation of the teams stats. Pass it to Set once the stats are
// computed.
func (c *Cache) Generation(ctx context.Context, teamID uuid.UUID) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}

	n, err := generation(c.client.WithContext(ctx).Get(generationKey(teamID)))
	if err != nil {
		return 0, fmt.Errorf("failed to get stats generation of team %q: %v", teamID, err)
	}
	return n, nil
}

// Get returns the cached stats. The boolean is false on a cache miss.
func (c *Cache) Get(ctx context.Context, teamID uuid.UUID, recentEvents int) (*DashboardStats, bool, error) {
	if !c.enabled() {
		return nil, false, nil
	}

	data, err := c.client.WithContext(ctx).HGet(key(teamID), strconv.Itoa(recentEvents)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get stats of team %q from cache: %v", teamID, err)
	}

	var stats DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached stats of team %q: %v", teamID, err)
	}

	return &stats, true, nil
}

var errStaleGeneration = errors.New("stats generation changed")

// Set caches stats computed at generation. Stats of an outdated generation are silently discarded.
func (c *Cache) Set(ctx context.Context, teamID uuid.UUID, generationAt int64, recentEvents int, stats *DashboardStats) error {
	if !c.enabled() {
		return nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %v", err)
	}

	err = c.client.WithContext(ctx).Watch(func(tx *redis.Tx) error {
		current, err := generation(tx.Get(generationKey(teamID)))
		if err != nil {
			return err
		}
		if current != generationAt {
			return errStaleGeneration
		}

		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.HSet(key(teamID), strconv.Itoa(recentEvents), data)
			pipe.Expire(key(teamID), c.ttl)
			return nil
		})
		return err
	}, generationKey(teamID))
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to cache stats of team %q: %v", teamID, err)
	}

	return nil
}

// Invalidate removes all cached stats of the team and starts a new generation.
func (c *Cache) Invalidate(ctx context.Context, teamID uuid.UUID) error {
	if !c.enabled() {
		return nil
	}

	pipe := c.client.WithContext(ctx).TxPipeline()
	pipe.Del(key(teamID))
	pipe.Incr(generationKey(teamID))
	_, err := pipe.Exec()
	if err != nil {
		return fmt.Errorf("failed to invalidate stats of team %q: %v", teamID, err)
	}

	return nil
}
