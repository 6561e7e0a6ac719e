package locker

import (
	"context"
	"fmt"
	"time"

	"github.com/onton/reconciler/src/utils/config"
	"github.com/onton/reconciler/src/utils/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const lockPrefix = "onton:job:lock:"
const cachePrefix = "onton:cache:"

// Only the lock holder may release; checked with a small lua script
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker provides the short-TTL single-flight job lock and a best-effort
// TTL cache. The cache is a read accelerator only, never a source of truth.
type Locker struct {
	client      *redis.Client
	redisConfig *config.Redis
	token       string
	log         *logrus.Entry
}

func NewLocker(config *config.Config, name string) (self *Locker) {
	self = new(Locker)
	self.redisConfig = &config.Redis
	self.token = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	self.log = logger.NewSublogger("locker")
	return
}

func (self *Locker) Connect(ctx context.Context) (err error) {
	opts := redis.Options{
		ClientName:      "onton-reconciler",
		Addr:            fmt.Sprintf("%s:%d", self.redisConfig.Host, self.redisConfig.Port),
		Password:        self.redisConfig.Password,
		Username:        self.redisConfig.User,
		DB:              self.redisConfig.DB,
		MinIdleConns:    self.redisConfig.MinIdleConns,
		MaxIdleConns:    self.redisConfig.MaxIdleConns,
		ConnMaxIdleTime: self.redisConfig.ConnMaxIdleTime,
		PoolSize:        self.redisConfig.MaxOpenConns,
		ConnMaxLifetime: self.redisConfig.ConnMaxLifetime,
	}

	self.client = redis.NewClient(&opts)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err = self.client.Ping(pingCtx).Err()
	if err != nil {
		self.log.WithError(err).Error("Failed to ping Redis")
		return
	}
	return
}

func (self *Locker) Disconnect() {
	err := self.client.Close()
	if err != nil {
		self.log.WithError(err).Error("Failed to close connection")
	}
}

// AcquireLock tries to take the single-flight lock for a job. A false
// return means another instance is already running, which is not an error.
func (self *Locker) AcquireLock(ctx context.Context, key string) (acquired bool, err error) {
	acquired, err = self.client.SetNX(ctx, lockPrefix+key, self.token, self.redisConfig.JobLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return
}

func (self *Locker) ReleaseLock(ctx context.Context, key string) {
	_, err := self.client.Eval(ctx, releaseScript, []string{lockPrefix + key}, self.token).Result()
	if err != nil && err != redis.Nil {
		self.log.WithError(err).WithField("key", key).Warn("Failed to release lock")
	}
}

func (self *Locker) CacheSet(ctx context.Context, key string, value string) {
	err := self.client.Set(ctx, cachePrefix+key, value, self.redisConfig.CacheTTL).Err()
	if err != nil {
		// Best effort only
		self.log.WithError(err).WithField("key", key).Debug("Cache set failed")
	}
}

func (self *Locker) CacheGet(ctx context.Context, key string) (value string, ok bool) {
	value, err := self.client.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			self.log.WithError(err).WithField("key", key).Debug("Cache get failed")
		}
		return "", false
	}
	return value, true
}
