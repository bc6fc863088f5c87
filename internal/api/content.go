package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"socialsaver/internal/domain"
	"socialsaver/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ContentHandler serves the saved content REST API.
type ContentHandler struct {
	store storage.Repository
	log   logrus.FieldLogger
}

// CreateContentRequest is the body of POST /api/content.
type CreateContentRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Platform     string `json:"platform" binding:"required"`
	OriginalURL  string `json:"original_url" binding:"required"`
	Caption      string `json:"caption"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	Summary      string `json:"summary"`
	Hashtags     string `json:"hashtags"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func NewContentHandler(store storage.Repository, logger logrus.FieldLogger) *ContentHandler {
	return &ContentHandler{store: store, log: logger}
}

// fail maps a store error to a response. Not found is expected and not logged.
func (h *ContentHandler) fail(c *gin.Context, err error, detail string) {
	if errors.Is(err, storage.ErrNotFound) {
		abortWithDetail(c, http.StatusNotFound, detailNotFound)
		return
	}
	h.log.WithError(err).WithField("path", c.FullPath()).Error(detail)
	abortWithDetail(c, http.StatusInternalServerError, detail)
}

func (h *ContentHandler) ListUsers(c *gin.Context) {
	users, err := h.store.Users(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *ContentHandler) Create(c *gin.Context) {
	var req CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetail(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	platform, ok := domain.ParsePlatform(req.Platform)
	if !ok {
		abortWithDetail(c, http.StatusBadRequest, "unknown platform "+strconv.Quote(req.Platform))
		return
	}

	record := domain.SavedContent{
		UserID:       req.UserID,
		Platform:     platform,
		OriginalURL:  req.OriginalURL,
		Caption:      req.Caption,
		Title:        req.Title,
		Category:     domain.Category(req.Category),
		Summary:      req.Summary,
		Hashtags:     req.Hashtags,
		ThumbnailURL: req.ThumbnailURL,
	}
	if err := h.store.Create(c.Request.Context(), &record); err != nil {
		h.fail(c, err, "Failed to create content")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ContentHandler) List(c *gin.Context) {
	skip, err := intQuery(c, "skip", 0)
	if err != nil || skip < 0 {
		abortWithDetail(c, http.StatusBadRequest, "skip must be a non-negative integer")
		return
	}
	limit, err := intQuery(c, "limit", defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		abortWithDetail(c, http.StatusBadRequest, "limit must be between 1 and 100")
		return
	}

	items, err := h.store.List(c.Request.Context(), storage.ListQuery{
		UserID: c.Param("user_id"),
		Offset: skip,
		Limit:  limit,
	})
	if err != nil {
		h.fail(c, err, "Failed to fetch content")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ContentHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		abortWithDetail(c, http.StatusBadRequest, "q is required")
		return
	}
	query := storage.SearchQuery{
		UserID:   c.Param("user_id"),
		Text:     q,
		Category: c.Query("category"),
	}
	if raw := c.Query("platform"); raw != "" {
		platform, ok := domain.ParsePlatform(raw)
		if !ok {
			c.JSON(http.StatusOK, []domain.SavedContent{})
			return
		}
		query.Platform = platform
	}

	items, err := h.store.Search(c.Request.Context(), query)
	if err != nil {
		h.fail(c, err, "Failed to search content")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	record, err := h.store.Get(c.Request.Context(), c.Param("user_id"), id)
	if err != nil {
		h.fail(c, err, "Failed to fetch content")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	var patch domain.ContentUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithDetail(c, http.StatusBadRequest, "invalid request payload")
		return
	}
	if patch.Platform != nil {
		platform, ok := domain.ParsePlatform(string(*patch.Platform))
		if !ok {
			abortWithDetail(c, http.StatusBadRequest, "unknown platform "+strconv.Quote(string(*patch.Platform)))
			return
		}
		patch.Platform = &platform
	}

	record, err := h.store.Update(c.Request.Context(), c.Param("user_id"), id, patch)
	if err != nil {
		h.fail(c, err, "Failed to update content")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ContentHandler) Archive(c *gin.Context) {
	id, ok := contentID(c)
	if !ok {
		return
	}
	if err := h.store.Archive(c.Request.Context(), c.Param("user_id"), id); err != nil {
		h.fail(c, err, "Failed to delete content")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "archived"})
}

func (h *ContentHandler) Categories(c *gin.Context) {
	values, err := h.store.Categories(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, values)
}

func (h *ContentHandler) Platforms(c *gin.Context) {
	values, err := h.store.Platforms(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err, "Failed to fetch platforms")
		return
	}
	c.JSON(http.StatusOK, values)
}

func contentID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("content_id"), 10, 64)
	if err != nil {
		abortWithDetail(c, http.StatusBadRequest, "content_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
