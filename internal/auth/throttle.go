package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const throttlePrefix = "login:failures:"

// LoginThrottle counts failed logins per identity in Redis. When Redis is
// unreachable it fails open and logs a warning.
type LoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
	logger      *zap.Logger
}

// NewLoginThrottle builds a throttle. A nil client or non-positive maxAttempts disables it.
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration, logger *zap.Logger) *LoginThrottle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window, logger: logger}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

func throttleKey(scope, identity string) string {
	return throttlePrefix + scope + ":" + strings.ToLower(strings.TrimSpace(identity))
}

// Allow rejects the attempt when the identity already exhausted its window.
func (t *LoginThrottle) Allow(ctx context.Context, scope, identity string) error {
	if !t.enabled() {
		return nil
	}
	count, err := t.client.Get(ctx, throttleKey(scope, identity)).Int()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return nil
	}
	if count >= t.maxAttempts {
		return apperrors.NewTooManyRequests("too many login attempts, retry later")
	}
	return nil
}

// Fail records a failed attempt and starts the window on the first one.
func (t *LoginThrottle) Fail(ctx context.Context, scope, identity string) {
	if !t.enabled() {
		return
	}
	key := throttleKey(scope, identity)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expire failed", zap.Error(err))
		}
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, scope, identity string) {
	if !t.enabled() {
		return
	}
	if err := t.client.Del(ctx, throttleKey(scope, identity)).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}
