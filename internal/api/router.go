package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns a Gin engine instance.
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	r.GET("/health", h.Health)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(SessionMiddleware())
	{
		apiV1.POST("/ingest/batch", h.IngestBatch)
		apiV1.POST("/ask", h.Ask)
		apiV1.POST("/themes/analyze-stream", h.AnalyzeThemesStream)
		apiV1.GET("/history", h.History)

		admin := apiV1.Group("/admin")
		{
			admin.POST("/session/end", h.EndSession)
		}
	}

	return r
}
