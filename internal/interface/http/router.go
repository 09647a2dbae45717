package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/phenology/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.GET("/phenology", handler.Phenology)
		api.GET("/phenology/list/:taxonKey", handler.PhenologyByListKey)
		api.GET("/species/match", handler.MatchSpecies)
		api.GET("/taxa/canonical", handler.CanonicalName)
		api.GET("/sheets/vernaculars", handler.Vernaculars)
		api.GET("/sheets/sranks", handler.SRanks)
		api.GET("/sheets/conservation-status", handler.ConservationStatus)
		api.GET("/sheets/signups", handler.Signups)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
