package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const userKey = "newsdigest.user"

type savedController struct {
	repo   ports.ArticleRepository
	logger *slog.Logger
}

type saveRequest struct {
	Title       string     `json:"title" binding:"required"`
	URL         string     `json:"url" binding:"required"`
	SourceName  string     `json:"source_name"`
	SummaryText string     `json:"summary_text"`
	PublishedAt *time.Time `json:"published_at"`
}

// registerSavedRoutes registers the per-user saved-article endpoints.
func registerSavedRoutes(r gin.IRoutes, repo ports.ArticleRepository, log *slog.Logger) {
	h := &savedController{repo: repo, logger: log}
	r.POST("", h.save)
	r.GET("", h.list)
	r.DELETE("/:id", h.delete)
}

// requireUser rejects requests without the gateway-provided user header.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(UserHeader))
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserHeader + " header"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// save handles POST /api/saved.
func (h *savedController) save(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.repo.Save(c.Request.Context(), domain.SavedArticle{
		UserID:      c.GetString(userKey),
		Title:       strings.TrimSpace(req.Title),
		URL:         strings.TrimSpace(req.URL),
		SourceName:  strings.TrimSpace(req.SourceName),
		SummaryText: strings.TrimSpace(req.SummaryText),
		PublishedAt: req.PublishedAt,
	})
	switch {
	case errors.Is(err, domain.ErrInvalidArticle):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadySaved):
		c.JSON(http.StatusConflict, gin.H{"error": "article already saved"})
	case err != nil:
		h.internalError(c, "save article", err)
	default:
		c.JSON(http.StatusCreated, saved)
	}
}

// list handles GET /api/saved.
func (h *savedController) list(c *gin.Context) {
	articles, err := h.repo.List(c.Request.Context(), c.GetString(userKey))
	if err != nil {
		h.internalError(c, "list saved articles", err)
		return
	}
	if articles == nil {
		articles = []domain.SavedArticle{}
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// delete handles DELETE /api/saved/:id.
func (h *savedController) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	err = h.repo.Delete(c.Request.Context(), c.GetString(userKey), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
	case err != nil:
		h.internalError(c, "delete saved article", err)
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *savedController) internalError(c *gin.Context, op string, err error) {
	h.logger.Error(op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
