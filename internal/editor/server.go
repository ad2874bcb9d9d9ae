package editor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health reports extra status for /healthz, e.g. the source breaker state.
type Health func() gin.H

// NewRouter mounts the editor API under /api plus /healthz and /metrics.
func NewRouter(h *Handler, health Health) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok", "sessions": h.Sessions.Len()}
		if health != nil {
			for k, v := range health() {
				body[k] = v
			}
		}
		c.JSON(http.StatusOK, body)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(router.Group("/api"))
	return router
}
