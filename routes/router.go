package routes

import (
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mohamedzeina/node-social/config"
	"github.com/mohamedzeina/node-social/controllers"
	"github.com/mohamedzeina/node-social/graph"
	"github.com/mohamedzeina/node-social/middleware"
	"github.com/mohamedzeina/node-social/realtime"
	"github.com/mohamedzeina/node-social/services"
	"github.com/mohamedzeina/node-social/storage"
	"github.com/mohamedzeina/node-social/utils"
)

// SetupRouter wires routes, middlewares, controllers and the GraphQL schema.
func SetupRouter(db *gorm.DB, hub *realtime.Hub) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(ginzap.Ginzap(utils.Logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(utils.Logger, true))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// The identity gate runs on every route and never rejects by itself.
	r.Use(middleware.Identify())

	images, err := storage.NewImageStore(cfg.ImagesDir)
	if err != nil {
		log.Fatalf("image store init failed: %v", err)
	}

	authService := services.NewAuthService(db, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	postService := services.NewPostService(db, images, hub, cfg.FeedPageSize)

	authController := controllers.NewAuthController(authService)
	feedController := controllers.NewFeedController(postService, images)

	schema, err := graph.NewSchema(&graph.Resolver{Auth: authService, Posts: postService})
	if err != nil {
		log.Fatalf("graphql schema init failed: %v", err)
	}

	r.Static("/images", cfg.ImagesDir)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", hub.ServeWS)

	authGroup := r.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.PUT("/signup", authController.Signup)
	authGroup.POST("/login", authController.Login)

	feed := r.Group("/feed")
	feed.GET("/posts", feedController.ListPosts)
	feed.GET("/post/:id", feedController.GetPost)
	feed.GET("/status", authController.GetStatus)

	mutations := feed.Group("")
	mutations.Use(middleware.RateLimitMiddleware())
	mutations.POST("/post", feedController.CreatePost)
	mutations.PUT("/post/:id", feedController.UpdatePost)
	mutations.DELETE("/post/:id", feedController.DeletePost)
	mutations.PUT("/status", authController.UpdateStatus)

	r.POST("/graphql", graph.Handler(schema))

	return r
}
