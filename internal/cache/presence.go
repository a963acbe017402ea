package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence tracks which users currently hold a live session.
type Presence struct {
	cli    *redis.Client
	prefix string
}

func NewPresence(cli *redis.Client, prefix string) *Presence {
	return &Presence{cli: cli, prefix: prefix}
}

func (p *Presence) key(userID string) string {
	return p.prefix + ":presence:" + userID
}

func (p *Presence) SetOnline(ctx context.Context, userID string, online bool) error {
	val := "0"
	if online {
		val = "1"
	}
	return p.cli.Set(ctx, p.key(userID), val, 24*time.Hour).Err()
}

func (p *Presence) IsOnline(ctx context.Context, userID string) (bool, error) {
	s, err := p.cli.Get(ctx, p.key(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s == "1", nil
}
