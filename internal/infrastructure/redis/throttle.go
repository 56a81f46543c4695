package redisinfra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript increments the window counter and arms its expiry on first hit.
const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// SendThrottle caps how many login codes one email can request per window.
type SendThrottle struct {
	client evaler
	window time.Duration
	max    int
	prefix string
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewSendThrottle(client *redis.Client, window time.Duration, max int) *SendThrottle {
	return newSendThrottle(client, window, max)
}

func newSendThrottle(client evaler, window time.Duration, max int) *SendThrottle {
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &SendThrottle{client: client, window: window, max: max, prefix: "login-code:send:"}
}

// Allow counts one request for email and reports whether it is within the cap.
// Redis errors are returned with allowed=true so callers can fail open.
func (t *SendThrottle) Allow(ctx context.Context, email string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	count, err := t.client.Eval(ctx, allowScript, []string{t.prefix + key}, int(t.window.Seconds())).Int()
	if err != nil {
		return true, fmt.Errorf("send throttle: %w", err)
	}
	return count <= t.max, nil
}
