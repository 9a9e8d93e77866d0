package redisc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// The online set is advisory. The authoritative connection map lives in the
// hub; these keys let the REST layer answer "who is online" without it. The
// per-user key carries a TTL so a crashed instance's entries expire; the
// pong handler refreshes it while the connection is alive.
const (
	onlineSetKey = "venturelink:online"
	presenceTTL  = 120 * time.Second
)

func presenceKey(userID string) string {
	return "venturelink:presence:" + userID
}

func SetOnline(client *redis.Client, userID string) error {
	ctx := context.Background()
	pipe := client.Pipeline()
	pipe.SAdd(ctx, onlineSetKey, userID)
	pipe.Set(ctx, presenceKey(userID), "online", presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func SetOffline(client *redis.Client, userID string) error {
	ctx := context.Background()
	pipe := client.Pipeline()
	pipe.SRem(ctx, onlineSetKey, userID)
	pipe.Del(ctx, presenceKey(userID))
	_, err := pipe.Exec(ctx)
	return err
}

func GetOnlineUsers(client *redis.Client) ([]string, error) {
	return client.SMembers(context.Background(), onlineSetKey).Result()
}

// RefreshPresence extends the per-user TTL without touching the set.
func RefreshPresence(client *redis.Client, userID string) error {
	return client.Expire(context.Background(), presenceKey(userID), presenceTTL).Err()
}
