package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/onhighmng/melhor-saude-backend/internal/config"
	"github.com/onhighmng/melhor-saude-backend/internal/db"
	"github.com/onhighmng/melhor-saude-backend/internal/http/handlers"
	"github.com/onhighmng/melhor-saude-backend/internal/http/middleware"
	"github.com/onhighmng/melhor-saude-backend/internal/matching"

	_ "github.com/onhighmng/melhor-saude-backend/docs"
)

func Router(cfg config.Config, store *db.Store, assigner *matching.Service, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:     store,
		Assigner:  assigner,
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/providers", h.ProvidersList)
		api.GET("/providers/:id/stats", h.ProviderStats)
		api.GET("/assignments/history", h.AssignmentHistory)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/cases", h.CreateCase)
		admin.POST("/cases/:id/reassign", h.Reassign)
		admin.POST("/cases/:id/accept", h.AcceptAssignment)
		admin.POST("/cases/:id/decline", h.DeclineAssignment)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
