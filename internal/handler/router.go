package handler

import (
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"snapfeed/internal/middleware"
	"snapfeed/internal/notify"
)

type RouterDeps struct {
	Auth        *AuthHandler
	Posts       *PostHandler
	Files       *FileHandler
	Notifier    *notify.Hub
	JWTSecret   []byte
	CORSOrigins []string
	// RateLimitWindow throttles the credential endpoints; a negative value
	// disables the limiter.
	RateLimitWindow time.Duration
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.CORSOrigins))

	// gzip stays off the root group so the websocket upgrade and raw image
	// responses pass through untouched.
	api := router.Group("/api/v1")
	api.Use(gzip.Gzip(gzip.DefaultCompression))

	window := deps.RateLimitWindow
	if window == 0 {
		window = time.Second
	}
	credentials := api.Group("")
	credentials.Use(middleware.RateLimit(window))
	credentials.PUT("/auth/signup", deps.Auth.Signup)
	credentials.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/status", deps.Auth.GetStatus)
	authGroup.PATCH("/auth/status", deps.Auth.UpdateStatus)
	authGroup.POST("/feed/posts", deps.Posts.Create)
	authGroup.PUT("/feed/posts/:id", deps.Posts.Update)
	authGroup.DELETE("/feed/posts/:id", deps.Posts.Delete)

	api.GET("/feed/posts", deps.Posts.List)
	api.GET("/feed/posts/:id", deps.Posts.Get)

	router.GET("/files/:key", deps.Files.Get)
	router.GET("/ws/feed", deps.Notifier.Serve)

	return router
}
