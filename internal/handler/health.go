package handler

import (
	"context"
	"net/http"
	"time"

	"cajapos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Redis is not required for ledger correctness, so a Redis outage degrades
// the report but keeps 200.
func Health(db *gorm.DB, rdb *redis.Client, pub *worker.Publicador) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		body := gin.H{"db": dbStatus}
		if rdb != nil {
			redisStatus := "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
			body["redis"] = redisStatus
			if n, err := worker.DerivasPendientes(ctx, rdb); err == nil {
				body["derivas_pendientes"] = n
			}
		}
		if pub != nil {
			body["publicador"] = pub.CBState().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
