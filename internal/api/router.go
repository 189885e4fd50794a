// Package api serves the pipeline documents over a read-only HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/patrolq/internal/contract"
	"go.uber.org/zap"
)

// SetupRouter wires the routes of the API.
func SetupRouter(h *Handler, logger *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "patrolq API is running",
		})
	})

	v1 := r.Group("/api/v1")
	{
		results := v1.Group("/results")
		{
			results.GET("", h.GetResults)
			results.GET("/best", h.GetBestModel)
			results.GET("/sweep", h.GetSweep)
		}
		v1.GET("/dimensionality", h.GetDimensionality)
		v1.GET("/profiles", h.GetProfiles)
		v1.GET("/runs", h.GetRuns)
	}
	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			logger.Warnw("request failed", append(fields, "errors", c.Errors.String())...)
			return
		}
		logger.Infow("request", fields...)
	}
}

// Serve runs the API on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h *Handler, logger *zap.SugaredLogger) error {
	if addr == "" {
		addr = contract.DefaultListen
	}
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           SetupRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("serving API", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Infow("shutting down API")
		return srv.Shutdown(shutdownCtx)
	}
}
