package routes

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports one dependency; a non-nil error marks it unhealthy.
type HealthCheck func(ctx context.Context) error

// RegisterHealthRoutes serves /health. Database failures return 503; other checks only
// degrade the report.
func RegisterHealthRoutes(router *gin.Engine, database HealthCheck, optional map[string]HealthCheck) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		status := http.StatusOK
		if err := database(ctx); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
		for name, check := range optional {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
			} else {
				checks[name] = "ok"
			}
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func RegisterMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterFallbackRoutes answers unknown /api paths with JSON and, when staticDir holds a
// built frontend, serves its files with index.html as the SPA fallback.
func RegisterFallbackRoutes(router *gin.Engine, staticDir string) {
	index := filepath.Join(staticDir, "index.html")
	_, err := os.Stat(index)
	hasFrontend := staticDir != "" && err == nil

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api/") || path == "/api" || !hasFrontend {
			c.JSON(http.StatusNotFound, gin.H{
				"status":  "error",
				"message": "Resource not found",
				"error":   "no route for " + c.Request.Method + " " + path,
			})
			return
		}

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Status(http.StatusNotFound)
			return
		}
		asset := filepath.Join(staticDir, filepath.Clean("/"+path))
		if info, err := os.Stat(asset); err == nil && !info.IsDir() {
			c.File(asset)
			return
		}
		c.File(index)
	})
}
