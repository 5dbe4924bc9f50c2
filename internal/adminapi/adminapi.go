// Package adminapi exposes an internal HTTP surface for operator
// intervention in lobby state, plus the Prometheus /metrics endpoint.
// There is deliberately no authentication, rate limiting, or HTML UI here
// (Non-goals): this surface is meant to sit behind a trusted network
// boundary, not to be internet-facing.
package adminapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/phira-mp/server/pkg/room"
)

// Router builds the admin HTTP surface backed by reg.
func Router(reg *room.Registry, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/admin/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rooms": reg.RoomCount(),
			"users": reg.UserCount(),
		})
	})

	r.POST("/admin/rooms/:id/destroy", func(c *gin.Context) {
		roomID := c.Param("id")
		reason := c.DefaultQuery("reason", "destroyed by operator")
		if err := reg.ForceDestroy(roomID); err != nil {
			logger.Warn("admin destroy failed", zap.String("room_id", roomID), zap.String("reason", reason), zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Info("admin destroy", zap.String("room_id", roomID), zap.String("reason", reason))
		c.JSON(http.StatusOK, gin.H{"status": "destroyed"})
	})

	r.POST("/admin/rooms/:id/kick/:userId", func(c *gin.Context) {
		roomID := c.Param("id")
		userID, err := parseUserID(c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		if err := reg.ForceKick(roomID, userID); err != nil {
			logger.Warn("admin kick failed", zap.String("room_id", roomID), zap.Int32("user_id", userID), zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "kicked"})
	})

	r.POST("/admin/rooms/:id/ready/:userId", func(c *gin.Context) {
		roomID := c.Param("id")
		userID, err := parseUserID(c.Param("userId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		if err := reg.ForceReady(roomID, userID); err != nil {
			logger.Warn("admin ready failed", zap.String("room_id", roomID), zap.Int32("user_id", userID), zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return r
}

func parseUserID(raw string) (int32, error) {
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}
