package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// defaultPrefix — префикс ключей refresh-токенов в Redis.
const defaultPrefix = "auth:rt:"

// RefreshEntry — то, что кэш знает о выпущенном refresh-токене;
// ключом служит его SHA-256-дайджест.
type RefreshEntry struct {
	UserID    uuid.UUID
	Revoked   bool
	ExpiresAt time.Time
}

// RefreshCache — совещательный кэш refresh-токенов: попадание с
// Revoked=true даёт отклонить ротацию без похода в Postgres,
// во всех остальных случаях решает хранилище.
type RefreshCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	Get(ctx context.Context, hash string) (*RefreshEntry, bool, error)
	// Set сохраняет запись с TTL (обычно ExpiresAt-now).
	Set(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error
	// MarkRevoked помечает ключ отозванным, не трогая остаточный TTL.
	MarkRevoked(ctx context.Context, hash string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache поднимает клиент Redis из URL вида
// redis://:pass@host:6379/0 и проверяет соединение пингом.
func NewRedisCache(redisURL, prefix string) (RefreshCache, error) {
	if prefix == "" {
		prefix = defaultPrefix
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(hash string) string { return c.prefix + hash }

// Запись лежит как Redis Hash: uid, rev (0/1), exp (unix-секунды).
// Битая запись отдаётся как ошибка, а не как промах: вызывающий
// логирует её и идёт в хранилище.
func (c *redisCache) Get(ctx context.Context, hash string) (*RefreshEntry, bool, error) {
	fields, err := c.rdb.HGetAll(ctx, c.key(hash)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(fields) == 0 {
		return nil, false, nil
	}

	uid, err := uuid.Parse(fields["uid"])
	if err != nil {
		return nil, false, err
	}

	expUnix, err := strconv.ParseInt(fields["exp"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	return &RefreshEntry{
		UserID:    uid,
		Revoked:   fields["rev"] == "1",
		ExpiresAt: time.Unix(expUnix, 0).UTC(),
	}, true, nil
}

// Set пишет поля и TTL одним TxPipeline, чтобы не оставить ключ без expire.
func (c *redisCache) Set(ctx context.Context, hash string, e *RefreshEntry, ttl time.Duration) error {
	rev := "0"
	if e.Revoked {
		rev = "1"
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(hash), map[string]string{
		"uid": e.UserID.String(),
		"rev": rev,
		"exp": strconv.FormatInt(e.ExpiresAt.Unix(), 10),
	})
	pipe.Expire(ctx, c.key(hash), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) MarkRevoked(ctx context.Context, hash string) error {
	return c.rdb.HSet(ctx, c.key(hash), "rev", "1").Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
