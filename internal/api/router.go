package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ChaseRain/storycards/internal/infra/logger"
)

// NewRouter builds the session host. Exported files are served under
// filesURL when it is set.
func NewRouter(handler *Handler, filesURL string, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/health", handler.Health)
	r.GET("/", handler.Gallery)

	if filesURL = strings.TrimSuffix(filesURL, "/"); filesURL != "" {
		r.GET(filesURL+"/*name", handler.File)
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/generate", handler.Generate)
		v1.GET("/session", handler.Session)
		v1.PUT("/session/level", handler.SetLevel)
		v1.GET("/session/events", handler.Events)
		v1.GET("/story", handler.Story)
		v1.POST("/export", handler.Export)
	}

	return r
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.Debug("request started",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.Next()
		log.Info("request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
