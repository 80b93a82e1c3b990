package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// Tokens guard against releasing a lock another holder re-acquired after our
// TTL expired.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var ErrNotConfigured = errors.New("lock: redis client not configured")

// JobLock is a best-effort SetNX advisory lock keyed by job name. It keeps a
// periodic job from running on more than one replica at a time; it is not a
// correctness mechanism. A nil JobLock (no redis configured) is valid and
// never holds the lock.
type JobLock struct {
	client *redis.Client
	script *redis.Script
}

func New(client *redis.Client) *JobLock {
	if client == nil {
		return nil
	}
	return &JobLock{
		client: client,
		script: redis.NewScript(releaseScript),
	}
}

// Acquire takes the named lock for at most ttl. On success it returns a
// release func the caller defers; when the lock is already held elsewhere it
// returns ok=false and a nil release.
func (l *JobLock) Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	if l == nil || l.client == nil {
		return nil, false, ErrNotConfigured
	}
	if name == "" {
		return nil, false, errors.New("lock: name is empty")
	}
	if ttl <= 0 {
		return nil, false, errors.New("lock: ttl must be positive")
	}

	token := uuid.NewString()
	taken, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !taken {
		return nil, false, nil
	}

	return func(ctx context.Context) error {
		return l.script.Run(ctx, l.client, []string{name}, token).Err()
	}, true, nil
}
