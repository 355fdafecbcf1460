package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"astraldraft-backend/shared/config"
	utils "astraldraft-backend/shared/utils/auth"
)

// CacheManager wraps the shared Redis client. It backs the distributed
// lockout store so horizontally scaled instances agree on who is locked out.
type CacheManager struct {
	client *redis.Client
}

var globalCacheManager *CacheManager

// InitCacheManager initializes the global cache manager
func InitCacheManager() error {
	cfg := config.GetConfig()

	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	globalCacheManager = &CacheManager{client: client}

	log.Printf("✅ Redis Cache Manager initialized successfully - %s:%s DB:%d",
		cfg.RedisHost, cfg.RedisPort, redisDB)

	return nil
}

// GetCacheManager returns the global cache manager instance
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		if err := InitCacheManager(); err != nil {
			log.Printf("❌ Failed to initialize cache manager: %v", err)
			return nil
		}
	}
	return globalCacheManager
}

// Close shuts down the underlying Redis connection
func (m *CacheManager) Close() error {
	return m.client.Close()
}

// RedisLockoutStore persists lockout records in Redis so lockout state
// survives restarts and is shared across replicas.
type RedisLockoutStore struct {
	client *redis.Client
}

func NewRedisLockoutStore(manager *CacheManager) *RedisLockoutStore {
	return &RedisLockoutStore{client: manager.client}
}

func lockoutKey(key string) string {
	return "lockout:" + key
}

func (s *RedisLockoutStore) Get(ctx context.Context, key string) (*utils.LockoutRecord, error) {
	raw, err := s.client.Get(ctx, lockoutKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var record utils.LockoutRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}

	return &record, nil
}

func (s *RedisLockoutStore) Put(ctx context.Context, key string, record *utils.LockoutRecord, ttl time.Duration) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, lockoutKey(key), raw, ttl).Err()
}

func (s *RedisLockoutStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, lockoutKey(key)).Err()
}
