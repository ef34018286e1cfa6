package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bricon/seo-engine/analyzer"
	"github.com/bricon/seo-engine/store"
)

func (h *Handler) previewMedia(c *gin.Context) {
	var asset analyzer.MediaAsset
	if err := c.ShouldBindJSON(&asset); err != nil {
		badRequest(c, "Invalid media payload")
		return
	}
	c.JSON(http.StatusOK, h.analyzer.PreviewMedia(asset))
}

func (h *Handler) previewArticle(c *gin.Context) {
	var article analyzer.Article
	if err := c.ShouldBindJSON(&article); err != nil {
		badRequest(c, "Invalid article payload")
		return
	}
	c.JSON(http.StatusOK, h.analyzer.PreviewArticle(c.Request.Context(), article))
}

type pageRequest struct {
	HTML         string `json:"html" binding:"required"`
	FocusKeyword string `json:"focus_keyword"`
}

type pageResponse struct {
	Article analyzer.Article     `json:"article"`
	Result  analyzer.ScoreResult `json:"result"`
}

func (h *Handler) scorePage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid page payload")
		return
	}

	article, result, err := h.analyzer.ScorePage(c.Request.Context(), strings.NewReader(req.HTML), req.FocusKeyword)
	if err != nil {
		h.logger.Warn("page import failed", zap.Error(err))
		badRequest(c, "Failed to parse HTML: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, pageResponse{Article: article, Result: result})
}

// seoResponse is a scored entity's current result with its persisted state
type seoResponse struct {
	ID int64 `json:"id"`
	analyzer.ScoreResult
	SEO store.SEOState `json:"seo"`
}

type mediaRequest struct {
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	Filepath         string `json:"filepath" binding:"required"`
	FileType         string `json:"file_type"`
	FileSize         int64  `json:"file_size" binding:"min=0"`
	Width            int    `json:"width" binding:"min=0"`
	Height           int    `json:"height" binding:"min=0"`
	AltText          string `json:"alt_text"`
	Title            string `json:"title"`
	Caption          string `json:"caption"`
	Album            string `json:"album"`
}

func (r mediaRequest) apply(m *store.Media) {
	m.Filename = r.Filename
	m.OriginalFilename = r.OriginalFilename
	m.Filepath = r.Filepath
	m.FileType = r.FileType
	m.FileSize = r.FileSize
	m.Width = r.Width
	m.Height = r.Height
	m.AltText = strings.TrimSpace(r.AltText)
	m.Title = strings.TrimSpace(r.Title)
	m.Caption = strings.TrimSpace(r.Caption)
	m.Album = strings.TrimSpace(r.Album)
}

type mediaResponse struct {
	store.Media
	SizeMB float64               `json:"size_mb"`
	Bucket store.SEOBucket       `json:"seo_bucket"`
	Result *analyzer.ScoreResult `json:"seo_result,omitempty"`
}

func newMediaResponse(m store.Media, result *analyzer.ScoreResult) mediaResponse {
	return mediaResponse{Media: m, SizeMB: m.SizeMB(), Bucket: store.BucketFor(m.SEO.Score), Result: result}
}

func (h *Handler) listMedia(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	filter := store.MediaFilter{
		Album:  c.Query("album"),
		Bucket: store.SEOBucket(c.Query("seo_filter")),
		Limit:  limit,
		Offset: offset,
	}
	if filter.Bucket != "" && !filter.Bucket.Valid() {
		badRequest(c, "Invalid seo_filter")
		return
	}

	items, err := h.library.ListMedia(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]mediaResponse, 0, len(items))
	for _, m := range items {
		out = append(out, newMediaResponse(m, nil))
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "limit": limit, "offset": offset})
}

func (h *Handler) mediaStats(c *gin.Context) {
	st, err := h.library.MediaLibraryStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) createMedia(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid media payload")
		return
	}

	var m store.Media
	req.apply(&m)
	result, err := h.service.CreateMedia(c.Request.Context(), &m)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMediaResponse(m, &result))
}

func (h *Handler) getMedia(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, err := h.library.GetMedia(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMediaResponse(*m, nil))
}

func (h *Handler) updateMedia(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid media payload")
		return
	}

	m, err := h.library.GetMedia(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req.apply(m)
	if m.Filename == "" {
		m.Filename = m.Filepath[strings.LastIndex(m.Filepath, "/")+1:]
	}
	result, err := h.service.UpdateMedia(c.Request.Context(), m)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMediaResponse(*m, &result))
}

func (h *Handler) mediaSEO(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, result, err := h.service.MediaSEOInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seoResponse{ID: m.ID, ScoreResult: result, SEO: m.SEO})
}

type articleRequest struct {
	Title           string `json:"title" binding:"required"`
	Slug            string `json:"slug"`
	Excerpt         string `json:"excerpt"`
	Content         string `json:"content"`
	Image           string `json:"image"`
	Author          string `json:"author"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	MetaKeywords    string `json:"meta_keywords"`
	FocusKeyword    string `json:"focus_keyword"`
}

func (r articleRequest) apply(a *store.Article) {
	a.Title = strings.TrimSpace(r.Title)
	a.Slug = strings.TrimSpace(r.Slug)
	a.Excerpt = r.Excerpt
	a.Content = r.Content
	a.Image = strings.TrimSpace(r.Image)
	a.Author = r.Author
	a.MetaTitle = r.MetaTitle
	a.MetaDescription = strings.TrimSpace(r.MetaDescription)
	a.MetaKeywords = r.MetaKeywords
	a.FocusKeyword = strings.TrimSpace(r.FocusKeyword)
}

type articleResponse struct {
	store.Article
	Result *analyzer.ScoreResult `json:"seo_result,omitempty"`
}

func (h *Handler) listArticles(c *gin.Context) {
	limit, offset, ok := pagination(c)
	if !ok {
		return
	}
	items, err := h.library.ListArticles(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) createArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid article payload")
		return
	}

	var a store.Article
	req.apply(&a)
	result, err := h.service.CreateArticle(c.Request.Context(), &a)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, articleResponse{Article: a, Result: &result})
}

func (h *Handler) getArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, err := h.library.GetArticle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: *a})
}

func (h *Handler) updateArticle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid article payload")
		return
	}

	a, err := h.library.GetArticle(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	req.apply(a)
	result, err := h.service.UpdateArticle(c.Request.Context(), a)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, articleResponse{Article: *a, Result: &result})
}

func (h *Handler) articleSEO(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, result, err := h.service.ArticleSEOInfo(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, seoResponse{ID: a.ID, ScoreResult: result, SEO: a.SEO})
}
