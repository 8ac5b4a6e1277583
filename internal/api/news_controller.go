package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"NewsDigest/internal/domain"
)

type newsController struct {
	news   NewsQuerier
	logger *slog.Logger
}

// registerNewsRoutes registers the latest and search endpoints.
func registerNewsRoutes(r gin.IRoutes, news NewsQuerier, log *slog.Logger) {
	h := &newsController{news: news, logger: log}
	r.GET("/latest", h.latest)
	r.GET("/search", h.search)
}

// latest handles GET /api/latest.
func (h *newsController) latest(c *gin.Context) {
	articles, err := h.news.Latest(c.Request.Context())
	h.respond(c, articles, err)
}

// search handles GET /api/search?q=term.
func (h *newsController) search(c *gin.Context) {
	articles, err := h.news.Search(c.Request.Context(), c.Query("q"))
	h.respond(c, articles, err)
}

func (h *newsController) respond(c *gin.Context, articles []domain.SummarizedArticle, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
	case err != nil:
		h.logger.Warn("news query failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    "news provider is unavailable, please try again later",
			"articles": []domain.SummarizedArticle{},
		})
	default:
		if articles == nil {
			articles = []domain.SummarizedArticle{}
		}
		c.JSON(http.StatusOK, gin.H{"articles": articles})
	}
}
