package storage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// MemoryRepository keeps saved articles in process memory. It is used when
// no database is configured.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	articles map[int64]domain.SavedArticle
	now      func() time.Time
}

var _ ports.ArticleRepository = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{articles: map[int64]domain.SavedArticle{}, now: time.Now}
}

// Save stores the article under a new id; a repeated (user, url) pair yields
// domain.ErrAlreadySaved.
func (r *MemoryRepository) Save(_ context.Context, article domain.SavedArticle) (domain.SavedArticle, error) {
	if err := Validate(article); err != nil {
		return domain.SavedArticle{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.articles {
		if existing.UserID == article.UserID && existing.URL == article.URL {
			return domain.SavedArticle{}, domain.ErrAlreadySaved
		}
	}

	r.nextID++
	article.ID = r.nextID
	article.SavedAt = r.now().UTC()
	r.articles[article.ID] = article
	return article, nil
}

// List returns the user's saved articles, newest first.
func (r *MemoryRepository) List(_ context.Context, userID string) ([]domain.SavedArticle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	articles := []domain.SavedArticle{}
	for _, a := range r.articles {
		if a.UserID == userID {
			articles = append(articles, a)
		}
	}
	sort.Slice(articles, func(i, j int) bool {
		if !articles[i].SavedAt.Equal(articles[j].SavedAt) {
			return articles[i].SavedAt.After(articles[j].SavedAt)
		}
		return articles[i].ID > articles[j].ID
	})
	return articles, nil
}

// Delete removes one of the user's articles or returns domain.ErrNotFound.
func (r *MemoryRepository) Delete(_ context.Context, userID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.articles[id]
	if !ok || a.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.articles, id)
	return nil
}

// DeleteAll drops every article and reports how many were held.
func (r *MemoryRepository) DeleteAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.articles))
	r.articles = map[int64]domain.SavedArticle{}
	return n, nil
}

// Validate checks the fields every repository requires.
func Validate(a domain.SavedArticle) error {
	switch {
	case strings.TrimSpace(a.UserID) == "":
		return fmt.Errorf("%w: user is required", domain.ErrInvalidArticle)
	case strings.TrimSpace(a.Title) == "":
		return fmt.Errorf("%w: title is required", domain.ErrInvalidArticle)
	}
	u, err := url.Parse(a.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) url", domain.ErrInvalidArticle)
	}
	return nil
}
