package chat

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const (
	redisOnlineKey  = "presence:online"
	redisConnPrefix = "presence:conns:"
)

// RedisPresence shares presence across instances. Each user's live
// connection ids live in a set; membership of the online set follows
// the first/last connection transitions.
type RedisPresence struct {
	client *redis.Client
}

func NewRedisPresence(client *redis.Client) *RedisPresence {
	return &RedisPresence{client: client}
}

func (p *RedisPresence) Add(ctx context.Context, userID, connID string) (bool, error) {
	if err := p.client.SAdd(ctx, redisConnPrefix+userID, connID).Err(); err != nil {
		return false, err
	}
	n, err := p.client.SCard(ctx, redisConnPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := p.client.SAdd(ctx, redisOnlineKey, userID).Err(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (p *RedisPresence) Remove(ctx context.Context, userID, connID string) (bool, error) {
	if err := p.client.SRem(ctx, redisConnPrefix+userID, connID).Err(); err != nil {
		return false, err
	}
	n, err := p.client.SCard(ctx, redisConnPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		if err := p.client.SRem(ctx, redisOnlineKey, userID).Err(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (p *RedisPresence) Lookup(ctx context.Context, userID string) (bool, error) {
	return p.client.SIsMember(ctx, redisOnlineKey, userID).Result()
}

func (p *RedisPresence) Snapshot(ctx context.Context) ([]string, error) {
	return p.client.SMembers(ctx, redisOnlineKey).Result()
}
