package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/aquawatch/db"
	"github.com/techagentng/aquawatch/server/response"
)

func (s *Server) handleGetNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		notifications, err := s.NotificationService.ListUnread(c.Request.Context(), userID)
		if err != nil {
			s.respondWithError(c, "unable to fetch notifications", err)
			return
		}
		response.JSON(c, "Notifications retrieved successfully", http.StatusOK, notifications, nil)
	}
}

func (s *Server) handleMarkNotificationRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		notificationID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if err := s.NotificationService.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
			s.respondWithError(c, "unable to update notification", err)
			return
		}
		response.JSON(c, "Notification marked as read", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleSeed() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := db.SeedFixtures(c.Request.Context(), s.DB)
		if err != nil {
			s.respondWithError(c, "unable to seed database", err)
			return
		}
		response.JSON(c, "Database seeded successfully", http.StatusCreated, summary, nil)
	}
}

func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "up"
		if sqlDB, err := s.DB.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
		response.JSON(c, "ok", status, gin.H{"database": dbStatus}, nil)
	}
}
