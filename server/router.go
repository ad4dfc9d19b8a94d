package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	setupValidation()
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())
	r.Use(cors.New(s.corsConfig()))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) corsConfig() cors.Config {
	conf := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.Config.AllowOrigins) > 0 {
		conf.AllowOrigins = s.Config.AllowOrigins
	} else {
		conf.AllowAllOrigins = true
	}
	return conf
}

func (s *Server) defineRoutes(router *gin.Engine) {
	if !s.Config.UsesS3() {
		router.Static("/uploads", s.Config.UploadDir)
	}

	apirouter := router.Group("/api/v1")
	apirouter.GET("/health", s.handleHealth())
	apirouter.GET("/auth/google/login", s.HandleGoogleLogin())
	apirouter.GET("/auth/google/callback", s.HandleGoogleCallback())
	apirouter.GET("/reports/recent", s.handleGetRecentReports())
	apirouter.GET("/leaderboard", s.handleGetLeaderboard())
	apirouter.POST("/seed", s.requireSeedEnabled(), s.limitRate("seed", time.Minute, 2), s.handleSeed())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/me", s.handleShowProfile())

	authorized.POST("/reports", s.handleSubmitReport())
	authorized.POST("/reports/analyze", s.limitRate("analyze", time.Minute, 10), s.handleAnalyzeImage())
	authorized.GET("/reports/mine", s.handleGetMyReports())
	authorized.GET("/reports/:reportID", s.handleGetReport())

	authorized.GET("/tasks", s.handleListTasks())
	authorized.GET("/tasks/collected", s.handleListCollected())
	authorized.POST("/tasks/:reportID/claim", s.handleClaimTask())
	authorized.POST("/tasks/:reportID/resolve", s.handleResolveTask())

	authorized.GET("/rewards", s.handleGetRewardSummary())
	authorized.GET("/rewards/available", s.handleGetAvailableRewards())
	authorized.GET("/rewards/transactions", s.handleGetTransactions())
	authorized.POST("/rewards/:rewardID/redeem", s.handleRedeemReward())

	authorized.GET("/notifications", s.handleGetNotifications())
	authorized.PUT("/notifications/:id/read", s.handleMarkNotificationRead())
}
