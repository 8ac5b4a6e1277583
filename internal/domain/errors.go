package domain

import "errors"

var (
	// ErrFetch covers network failures, timeouts and non-2xx responses while retrieving a page.
	ErrFetch = errors.New("fetch failed")
	// ErrParse is returned when a document cannot be parsed structurally.
	ErrParse = errors.New("parse failed")
	// ErrModelUnavailable means the summarization backend failed to load or to answer.
	ErrModelUnavailable = errors.New("summarization model unavailable")
	// ErrInputTooShort is an internal signal that skips the model.
	ErrInputTooShort = errors.New("input too short to summarize")
	// ErrProviderUnavailable is the batch-level failure of every configured news source.
	ErrProviderUnavailable = errors.New("news provider unavailable")

	ErrAlreadySaved   = errors.New("article already saved")
	ErrNotFound       = errors.New("not found")
	ErrInvalidArticle = errors.New("invalid article")
	ErrEmptyQuery     = errors.New("search term is empty")
)
