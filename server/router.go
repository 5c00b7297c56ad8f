package server

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/techagentng/firesafe/server/response"
)

func (s *Server) setupRouter() *gin.Engine {
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

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Webhook-Secret"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := s.Config.AccessControlAllowOrigin; origins != "" && origins != "*" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	loginStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
	blogStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 120,
	})

	router.GET("/health", func(c *gin.Context) {
		response.JSON(c, "ok", http.StatusOK, nil, nil)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apirouter := router.Group("/api/v1")
	apirouter.POST("/auth/signup", s.handleSignup())
	apirouter.POST("/auth/login", limitRateForLogin(loginStore), s.handleLogin())
	apirouter.GET("/blog", s.handleListPublishedPosts())
	apirouter.GET("/blog/:slug", limitRateByClient(blogStore), s.handleViewPost())
	apirouter.POST("/push/subscribe", s.handlePushSubscribe())
	apirouter.DELETE("/push/subscribe", s.handlePushUnsubscribe())
	apirouter.POST("/webhooks/blog", s.RequireWebhookSecret(), s.handleBlogWebhook())
	apirouter.GET("/fire-stations", s.handleListFireStations())
	apirouter.GET("/fire-stations/nearest", s.handleNearestFireStations())
	apirouter.GET("/fire-stations/:id", s.handleGetFireStation())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/auth/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.POST("/houses", s.handleCreateHouse())
	authorized.GET("/houses", s.handleListHouses())
	authorized.GET("/houses/:id", s.handleGetHouse())
	authorized.PATCH("/houses/:id", s.handleUpdateHouse())
	authorized.DELETE("/houses/:id", s.handleDeleteHouse())
	authorized.POST("/uploads", s.handleUpload())

	admin := authorized.Group("/")
	admin.Use(s.RequireAdmin())
	admin.POST("/analysis/plan", s.handleAnalyzePlan())
	admin.GET("/admin/blog", s.handleAdminListPosts())
	admin.POST("/admin/blog", s.handleCreatePost())
	admin.GET("/admin/blog/:id", s.handleAdminGetPost())
	admin.PATCH("/admin/blog/:id", s.handleUpdatePost())
	admin.DELETE("/admin/blog/:id", s.handleDeletePost())
	admin.POST("/reports", s.handleGenerateReport())
	admin.GET("/reports", s.handleListReports())
	admin.GET("/reports/:id", s.handleGetReport())
	admin.GET("/reports/:id/export", s.handleExportReport())
	admin.GET("/admin/stats", s.handleDashboardStats())
	admin.GET("/admin/activity", s.handleDashboardActivity())
	admin.POST("/fire-stations", s.handleCreateFireStation())
	admin.PUT("/fire-stations/:id", s.handleUpdateFireStation())
	admin.PATCH("/fire-stations/:id/staff", s.handleUpdateDailyStaff())
	admin.DELETE("/fire-stations/:id", s.handleDeleteFireStation())
	admin.GET("/realtime/:channel", s.handleRealtime())
}
