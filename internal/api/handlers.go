package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docmind/internal/core/apperr"
	"docmind/internal/pipeline"
	"docmind/internal/service"
	"docmind/pkg/logger"
)

// Handler wraps the handler functions for every API endpoint.
type Handler struct {
	log *logger.Logger
	svc *service.Service
}

// NewHandler creates a new Handler instance.
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{log: log, svc: svc}
}

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, apperr.ErrServiceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.log.WithSession(sessionID(c)).Error("request failed: " + err.Error())
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// IngestBatch accepts a multipart upload of documents and indexes them
// into the caller's session. Per-file failures are reported in the body;
// the response is 200 as long as the batch itself ran.
func (h *Handler) IngestBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form upload: " + err.Error()})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in upload"})
		return
	}

	files := make([]pipeline.File, 0, len(uploads))
	for _, fh := range uploads {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload " + fh.Filename + ": " + err.Error()})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload " + fh.Filename + ": " + err.Error()})
			return
		}
		files = append(files, pipeline.File{Name: fh.Filename, Data: data})
	}

	result, err := h.svc.Ingest(c.Request.Context(), sessionID(c), files)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// AskRequest is the JSON body of an Ask call.
type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

// Ask answers a question against the session's documents.
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.svc.Ask(c.Request.Context(), sessionID(c), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":    answer.Text,
		"citations": answer.Citations,
		"chunks":    answer.Chunks,
		"degraded":  answer.Degraded,
	})
}

// AnalyzeThemesStream clusters the session corpus and streams each theme
// as a server-sent event the moment its label completes. A corpus too
// small to cluster yields a single insufficient_data event.
func (h *Handler) AnalyzeThemesStream(c *gin.Context) {
	analysis, err := h.svc.AnalyzeThemes(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	if analysis.InsufficientData {
		c.SSEvent("insufficient_data", gin.H{"chunk_count": analysis.ChunkCount})
		c.Writer.Flush()
		return
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case theme, ok := <-analysis.Themes:
			if !ok {
				c.SSEvent("done", gin.H{"chunk_count": analysis.ChunkCount})
				return false
			}
			c.SSEvent("theme", theme)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// History returns the session's retained conversation turns.
func (h *Handler) History(c *gin.Context) {
	turns, err := h.svc.History(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

// EndSession destroys the caller's session and everything in it. Ending a
// session that does not exist succeeds.
func (h *Handler) EndSession(c *gin.Context) {
	if err := h.svc.EndSession(c.Request.Context(), sessionID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session ended"})
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
