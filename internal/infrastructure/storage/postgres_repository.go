package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	savedTable         = "saved_articles"
	uniqueViolationErr = "23505"
)

const schema = `CREATE TABLE IF NOT EXISTS saved_articles (
    id           BIGSERIAL PRIMARY KEY,
    user_id      TEXT        NOT NULL,
    title        TEXT        NOT NULL,
    url          TEXT        NOT NULL,
    source_name  TEXT        NOT NULL DEFAULT '',
    summary_text TEXT        NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ NULL,
    saved_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, url)
)`

var savedColumns = []string{"id", "user_id", "title", "url", "source_name", "summary_text", "published_at", "saved_at"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists saved articles into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the saved_articles table when it is missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Save inserts the article for its user. A second save of the same URL by
// the same user yields domain.ErrAlreadySaved.
func (r *PostgresRepository) Save(ctx context.Context, article domain.SavedArticle) (domain.SavedArticle, error) {
	if err := Validate(article); err != nil {
		return domain.SavedArticle{}, err
	}

	query, args, err := insertQuery(article).ToSql()
	if err != nil {
		return domain.SavedArticle{}, fmt.Errorf("build insert: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query, args...).Scan(&article.ID, &article.SavedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows), isUniqueViolation(err):
		return domain.SavedArticle{}, domain.ErrAlreadySaved
	case err != nil:
		return domain.SavedArticle{}, fmt.Errorf("insert saved article: %w", err)
	}

	return article, nil
}

// List returns the user's saved articles, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]domain.SavedArticle, error) {
	query, args, err := listQuery(userID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved: %w", err)
	}
	defer rows.Close()

	articles := []domain.SavedArticle{}
	for rows.Next() {
		var (
			a         domain.SavedArticle
			published sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.URL, &a.SourceName, &a.SummaryText, &published, &a.SavedAt); err != nil {
			return nil, fmt.Errorf("scan saved article: %w", err)
		}
		if published.Valid {
			t := published.Time
			a.PublishedAt = &t
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// Delete removes one of the user's saved articles.
func (r *PostgresRepository) Delete(ctx context.Context, userID string, id int64) error {
	query, args, err := deleteQuery(userID, id).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete saved article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll empties the table and reports how many rows were removed.
func (r *PostgresRepository) DeleteAll(ctx context.Context) (int64, error) {
	query, args, err := psql.Delete(savedTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete saved articles: %w", err)
	}
	return res.RowsAffected()
}

func insertQuery(a domain.SavedArticle) sq.InsertBuilder {
	return psql.Insert(savedTable).
		Columns("user_id", "title", "url", "source_name", "summary_text", "published_at").
		Values(a.UserID, a.Title, a.URL, a.SourceName, a.SummaryText, a.PublishedAt).
		Suffix("ON CONFLICT (user_id, url) DO NOTHING RETURNING id, saved_at")
}

func listQuery(userID string) sq.SelectBuilder {
	return psql.Select(savedColumns...).
		From(savedTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("saved_at DESC", "id DESC")
}

func deleteQuery(userID string, id int64) sq.DeleteBuilder {
	return psql.Delete(savedTable).
		Where(sq.Eq{"user_id": userID, "id": id})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationErr
}
