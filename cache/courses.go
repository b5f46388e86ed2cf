package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnhub/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const courseListKey = "learnhub:courses:all"

// Connect initializes a Redis client from URL or host:port input.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// CourseCache keeps the public course list in Redis. A nil *CourseCache is
// valid and caches nothing.
type CourseCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewCourseCache(client *redis.Client, ttl time.Duration, log zerolog.Logger) *CourseCache {
	if client == nil {
		return nil
	}
	return &CourseCache{client: client, ttl: ttl, log: log}
}

// Courses returns the cached list; ok is false on a miss or any Redis error
func (c *CourseCache) Courses(ctx context.Context) (courses []models.Course, ok bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, courseListKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("course cache read failed")
		}
		return nil, false
	}
	if err := json.Unmarshal(raw, &courses); err != nil {
		c.log.Warn().Err(err).Msg("course cache entry unreadable")
		return nil, false
	}
	return courses, true
}

func (c *CourseCache) SetCourses(ctx context.Context, courses []models.Course) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(courses)
	if err != nil {
		c.log.Warn().Err(err).Msg("course cache encode failed")
		return
	}
	if err := c.client.Set(ctx, courseListKey, raw, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("course cache write failed")
	}
}

// Invalidate drops the cached list after courses or counters change
func (c *CourseCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, courseListKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("course cache invalidate failed")
	}
}

func (c *CourseCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
