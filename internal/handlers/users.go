package handlers

import (
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/venturelink/backend/internal/redisc"
)

// OnlineUsers returns the advisory online set from Redis.
func OnlineUsers(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := redisc.GetOnlineUsers(redisClient)
		if err != nil {
			slog.Error("failed to get online users", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": len(ids),
			"users": ids,
		})
	}
}
