package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores state as JSON strings with a sliding expiry.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis stores state under prefix. A zero ttl keeps keys forever.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(owner string) string {
	return fmt.Sprintf("%s:%s", r.prefix, owner)
}

func (r *Redis) Load(ctx context.Context, owner string) (State, error) {
	if err := checkOwner(owner); err != nil {
		return State{}, err
	}
	val, err := r.client.Get(ctx, r.key(owner)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrNotFound
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return State{}, fmt.Errorf("decode state %s: %w", owner, err)
	}
	return st, nil
}

func (r *Redis) Save(ctx context.Context, owner string, st State) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(owner), data, r.ttl).Err()
}

func (r *Redis) Clear(ctx context.Context, owner string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	return r.client.Del(ctx, r.key(owner)).Err()
}
