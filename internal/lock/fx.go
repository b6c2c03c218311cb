package lock

import (
	"strings"

	"github.com/quillhq/quill/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// NewRedisClient returns nil when no Redis address is configured. Callers
// treat a nil client as "locking disabled" and run unguarded.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
}

var Module = fx.Module("lock",
	fx.Provide(
		NewRedisClient,
		NewLocker,
	),
)
