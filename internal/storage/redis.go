package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"docanalyzer/internal/logger"
)

// RedisStore keeps each blob in a hash holding the bytes and the write time.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis blob store initialized", zap.String("addr", addr), zap.Int("db", db))
	return &RedisStore{client: client}, nil
}

func redisKey(container, key string) string {
	return fmt.Sprintf("blob:%s:%s", container, key)
}

// globEscape quotes the characters SCAN MATCH treats as patterns.
func globEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *RedisStore) Put(ctx context.Context, container, key string, data []byte) error {
	if err := validateKey(container, key); err != nil {
		return err
	}
	err := s.client.HSet(ctx, redisKey(container, key),
		"data", data,
		"size", len(data),
		"modified", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	logger.Debug("Object stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, container, key string) ([]byte, error) {
	if err := validateKey(container, key); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, redisKey(container, key), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return data, nil
}

func (s *RedisStore) List(ctx context.Context, container, prefix string) ([]Object, error) {
	base := redisKey(container, "")
	iter := s.client.Scan(ctx, 0, globEscape(base+prefix)+"*", 100).Iterator()

	var objects []Object
	for iter.Next(ctx) {
		full := iter.Val()
		vals, err := s.client.HMGet(ctx, full, "size", "modified").Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read object metadata: %w", err)
		}

		obj := Object{Key: strings.TrimPrefix(full, base)}
		if v, ok := vals[0].(string); ok {
			obj.Size, _ = strconv.ParseInt(v, 10, 64)
		}
		if v, ok := vals[1].(string); ok {
			obj.ModTime, _ = time.Parse(time.RFC3339Nano, v)
		}
		objects = append(objects, obj)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate object keys: %w", err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *RedisStore) Delete(ctx context.Context, container, key string) error {
	if err := validateKey(container, key); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, redisKey(container, key)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
