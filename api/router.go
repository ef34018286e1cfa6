// Package api exposes the scoring engine and the media/article library over
// HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bricon/seo-engine/analyzer"
	"github.com/bricon/seo-engine/scoring"
	"github.com/bricon/seo-engine/stats"
	"github.com/bricon/seo-engine/store"
)

// Library is the read side of the store used by the handlers
type Library interface {
	Ping(ctx context.Context) error
	GetMedia(ctx context.Context, id int64) (*store.Media, error)
	ListMedia(ctx context.Context, f store.MediaFilter) ([]store.Media, error)
	MediaLibraryStats(ctx context.Context) (store.LibraryStats, error)
	GetArticle(ctx context.Context, id int64) (*store.Article, error)
	ListArticles(ctx context.Context, limit, offset int) ([]store.Article, error)
}

// Handler holds the dependencies of the HTTP handlers
type Handler struct {
	analyzer *analyzer.Analyzer
	service  *scoring.Service
	library  Library
	stats    *stats.Storage
	logger   *zap.Logger
}

// NewHandler creates a Handler. st may be nil.
func NewHandler(a *analyzer.Analyzer, svc *scoring.Service, lib Library, st *stats.Storage, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{analyzer: a, service: svc, library: lib, stats: st, logger: logger}
}

// Register mounts every API route on r
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/health", h.health)

	seo := api.Group("/seo")
	seo.POST("/media", h.previewMedia)
	seo.POST("/article", h.previewArticle)
	seo.POST("/page", h.scorePage)

	media := api.Group("/media")
	media.GET("", h.listMedia)
	media.POST("", h.createMedia)
	media.GET("/stats", h.mediaStats)
	media.GET("/:id", h.getMedia)
	media.PUT("/:id", h.updateMedia)
	media.GET("/:id/seo", h.mediaSEO)

	articles := api.Group("/articles")
	articles.GET("", h.listArticles)
	articles.POST("", h.createArticle)
	articles.GET("/:id", h.getArticle)
	articles.PUT("/:id", h.updateArticle)
	articles.GET("/:id/seo", h.articleSEO)

	api.GET("/statistics", h.statistics)
}

// respondError maps err to a status code and a JSON error body
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	case errors.Is(err, store.ErrEmptySlug):
		badRequest(c, store.ErrEmptySlug.Error())
		return
	case errors.Is(err, store.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": store.ErrSlugTaken.Error()})
		return
	}
	// driver errors stay in the log
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

// pagination reads limit/offset query parameters, capping limit at 200
func pagination(c *gin.Context) (limit, offset int, ok bool) {
	limit, offset = 50, 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(c, "Invalid limit")
			return 0, 0, false
		}
		limit = min(n, 200)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "Invalid offset")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

func (h *Handler) health(c *gin.Context) {
	if err := h.library.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) statistics(c *gin.Context) {
	resp := gin.H{"cache": h.analyzer.GetCacheStats()}
	if h.stats != nil {
		months := h.stats.GetAllMonths()
		history := make(map[string]stats.MonthlyStats, len(months))
		for _, m := range months {
			if ms, ok := h.stats.GetMonthlyStats(m); ok {
				history[m] = ms
			}
		}
		resp["current"] = h.stats.GetCurrentStats()
		resp["months"] = history
	}
	c.JSON(http.StatusOK, resp)
}
