package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// FollowCooldownWindow is the minimum interval between follow/unfollow
// actions by the same actor against the same target. Enforced server-side
// on the write path; follow and unfollow share one key so a quick
// follow-unfollow-follow cycle is also throttled.
const FollowCooldownWindow = 30 * time.Second

// Cooldown gates repeated actions keyed by actor and target
type Cooldown interface {
	Allow(ctx context.Context, actorID, targetID uint) (bool, error)
	Release(ctx context.Context, actorID, targetID uint) error
}

// RedisCooldown implements Cooldown with SET NX and a TTL
type RedisCooldown struct {
	client *redis.Client
	window time.Duration
}

// NewRedisCooldown creates a RedisCooldown with the given window
func NewRedisCooldown(client *redis.Client, window time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, window: window}
}

// Allow claims the cooldown slot for (actor, target). It returns false when
// the slot is already held, i.e. the actor acted on this target within the
// window. The claim is atomic: concurrent callers race on SET NX and only
// one wins.
func (c *RedisCooldown) Allow(ctx context.Context, actorID, targetID uint) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.key(actorID, targetID), 1, c.window).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release frees a claimed slot early. Called when the guarded action failed
// after the claim, so the actor can retry without waiting out the window.
func (c *RedisCooldown) Release(ctx context.Context, actorID, targetID uint) error {
	return c.client.Del(ctx, c.key(actorID, targetID)).Err()
}

func (c *RedisCooldown) key(actorID, targetID uint) string {
	return fmt.Sprintf("cooldown:follow:%d:%d", actorID, targetID)
}
