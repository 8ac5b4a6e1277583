package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

// UserHeader carries the authenticated user id set by the upstream gateway.
const UserHeader = "X-User-ID"

// NewsQuerier is the news use case consumed by the HTTP layer.
type NewsQuerier interface {
	Latest(ctx context.Context) ([]domain.SummarizedArticle, error)
	Search(ctx context.Context, term string) ([]domain.SummarizedArticle, error)
}

// Deps groups what the router needs.
type Deps struct {
	News   NewsQuerier
	Saved  ports.ArticleRepository
	Logger *slog.Logger
	// AllowedOrigins limits browser origins; empty allows any.
	AllowedOrigins []string
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(deps Deps) *gin.Engine {
	log := logging.OrDiscard(deps.Logger)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log), corsMiddleware(deps.AllowedOrigins))

	api := r.Group("/api")
	registerHealthRoutes(api)
	registerNewsRoutes(api, deps.News, log)

	saved := api.Group("/saved", requireUser())
	registerSavedRoutes(saved, deps.Saved, log)

	return r
}

func registerHealthRoutes(r gin.IRoutes) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = struct{}{}
		}
	}

	return cors.New(cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", UserHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
		AllowOriginFunc: func(origin string) bool {
			if len(allowed) == 0 {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	})
}

// requestLogger writes one slog line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(started).Round(time.Millisecond))
	}
}
