package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const scheduleKey string = "monitor:schedule"

func (c *Client) Schedule(ctx context.Context, monitorID string, nextRun time.Time) error {
	return retry(ctx, 3, func() error {
		return c.rdb.ZAdd(ctx, scheduleKey, redis.Z{
			Score:  float64(nextRun.UnixMilli()),
			Member: monitorID,
		}).Err()
	})
}

func (c *Client) DelSchedule(ctx context.Context, monitorID string) error {
	return c.rdb.ZRem(ctx, scheduleKey, monitorID).Err()
}

func (c *Client) FetchDueMonitors(ctx context.Context, script string, now time.Time, limit int) ([]string, error) {
	nowMillis := now.UnixMilli()

	result, err := c.rdb.Eval(ctx, script, []string{scheduleKey}, nowMillis, limit).Result()
	if err != nil {
		return nil, err
	}

	rawItems, ok := result.([]any)
	if !ok {
		return nil, nil
	}

	due := make([]string, 0, len(rawItems))
	for _, item := range rawItems {
		if str, ok := item.(string); ok {
			due = append(due, str)
		}
	}

	return due, nil
}
