package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "campus_notifier:job_claim:"
	// defaultOwnerHost stands in when the host name cannot be read.
	defaultOwnerHost = "campus_notifier"

	connectTimeout = 30 * time.Second
	retryAttempts  = 3
	retryInterval  = 5 * time.Second
)

var ErrRedisNotReady = fmt.Errorf("redis is not ready")

// setNXer is the part of redis.Cmdable the lock uses.
type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisJobLock claims scheduled jobs with SET NX so two sweeps never
// deliver the same job while the claim is alive.
type RedisJobLock struct {
	client setNXer
	owner  string
}

var hostname = os.Hostname

// OwnerID names this process in claim values as "<host>/<uuid>". A failed
// host lookup is returned alongside an id built on defaultOwnerHost.
func OwnerID() (string, error) {
	host, err := hostname()
	if err != nil || host == "" {
		host = defaultOwnerHost
	}
	return host + "/" + uuid.NewString(), err
}

func NewRedisJobLock(client setNXer, owner string) *RedisJobLock {
	return &RedisJobLock{client: client, owner: owner}
}

func (l *RedisJobLock) Claim(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, keyPrefix+jobID, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim job %s: %w", jobID, err)
	}
	return ok, nil
}

// Connect parses url and pings the server, retrying a few times before
// giving up.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	for range retryAttempts {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(retryInterval):
		}
	}
	return nil, ErrRedisNotReady
}
