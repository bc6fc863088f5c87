// Package api exposes the content REST API, the WhatsApp webhook and the
// operational endpoints over gin.
package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/config"
	"socialsaver/internal/metrics"
	"socialsaver/internal/pipeline"
	"socialsaver/internal/storage"
)

// Ingester runs an inbound message through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, channel, senderID, text string) pipeline.Outcome
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Config   config.Config
	Store    storage.Repository
	Ingester Ingester
	Metrics  *metrics.Metrics
	Logger   logrus.FieldLogger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log := d.Logger.WithField("component", "http")

	router := gin.New()
	router.Use(
		RequestIDMiddleware(),
		LoggerMiddleware(log),
		RecoveryMiddleware(log),
		CORSMiddleware(d.Config.AllowedOrigins()),
	)
	if d.Metrics != nil {
		router.Use(MetricsMiddleware(d.Metrics))
		router.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	healthHandler := NewHealthHandler(d.Store)
	contentHandler := NewContentHandler(d.Store, log)
	webhookHandler := NewWebhookHandler(d.Ingester, d.Config.Twilio, log)

	apiGroup := router.Group("/api")
	apiGroup.GET("/", healthHandler.Root)
	apiGroup.GET("/health", healthHandler.Check)

	apiGroup.POST("/whatsapp/webhook", webhookHandler.Receive)

	contentGroup := apiGroup.Group("/content")
	contentGroup.GET("/users", contentHandler.ListUsers)
	contentGroup.POST("", contentHandler.Create)
	contentGroup.POST("/", contentHandler.Create)
	contentGroup.GET("/:user_id/all", contentHandler.List)
	contentGroup.GET("/:user_id/search", contentHandler.Search)
	contentGroup.GET("/:user_id/filters/categories", contentHandler.Categories)
	contentGroup.GET("/:user_id/filters/platforms", contentHandler.Platforms)
	contentGroup.GET("/:user_id/:content_id", contentHandler.Get)
	contentGroup.PUT("/:user_id/:content_id", contentHandler.Update)
	contentGroup.DELETE("/:user_id/:content_id", contentHandler.Archive)

	return router
}
