package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

// PlaceholderSummary is returned when neither body text nor description is usable.
const PlaceholderSummary = "Content was empty or could not be scraped. No summary available."

const modelLoadTimeout = time.Minute

// SummaryOptions bounds the input handed to the model and the fallback output.
type SummaryOptions struct {
	MinInputLength   int
	MaxInputLength   int
	DescriptionLimit int
	Timeout          time.Duration
}

// SummaryService owns the summarization model. The model is loaded once per
// process; if loading fails the service stays in fallback-only mode.
type SummaryService struct {
	load   ports.ModelLoader
	opts   SummaryOptions
	logger *slog.Logger

	once  sync.Once
	model ports.SummaryModel
}

var _ ports.Summarizer = (*SummaryService)(nil)

// NewSummaryService wires the backend loader. A nil loader means fallback-only.
func NewSummaryService(load ports.ModelLoader, opts SummaryOptions, log *slog.Logger) *SummaryService {
	if opts.MinInputLength <= 0 {
		opts.MinInputLength = 50
	}
	if opts.MaxInputLength < opts.MinInputLength {
		opts.MaxInputLength = 3000
	}
	if opts.DescriptionLimit <= 0 {
		opts.DescriptionLimit = 150
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &SummaryService{load: load, opts: opts, logger: logging.OrDiscard(log)}
}

// Init loads the model eagerly. Calling it is optional; Summarize loads on first use.
func (s *SummaryService) Init(ctx context.Context) bool {
	return s.ensureModel(ctx) != nil
}

// Summarize never fails: short input, a missing model, model errors and
// timeouts all resolve to a fallback built from description.
func (s *SummaryService) Summarize(ctx context.Context, text, description string) domain.SummaryResult {
	text = normalizeSpace(text)
	if utf8.RuneCountInString(text) < s.opts.MinInputLength {
		s.logger.Debug("skip model", "reason", domain.ErrInputTooShort, "chars", utf8.RuneCountInString(text))
		return s.fallback(description)
	}

	model := s.ensureModel(ctx)
	if model == nil {
		return s.fallback(description)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	out, err := model.Summarize(callCtx, TruncateInput(text, s.opts.MaxInputLength))
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = errors.New("empty model output")
	}
	if err != nil {
		s.logger.Warn("summarize", "error", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err))
		return s.fallback(description)
	}

	return domain.SummaryResult{Text: out, Source: domain.SummaryFromModel}
}

func (s *SummaryService) ensureModel(ctx context.Context) ports.SummaryModel {
	s.once.Do(func() {
		if s.load == nil {
			s.logger.Warn("no summarization backend configured, using fallback summaries")
			return
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), modelLoadTimeout)
		defer cancel()

		model, err := s.load(loadCtx)
		if err != nil {
			s.logger.Warn("summarization model unavailable, using fallback summaries",
				"error", fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err))
			return
		}
		s.model = model
	})
	return s.model
}

func (s *SummaryService) fallback(description string) domain.SummaryResult {
	description = normalizeSpace(description)
	if description == "" {
		return domain.SummaryResult{Text: PlaceholderSummary, Source: domain.SummaryFromPlaceholder}
	}
	return domain.SummaryResult{
		Text:   truncateDescription(description, s.opts.DescriptionLimit),
		Source: domain.SummaryFromDescription,
	}
}

// TruncateInput shortens text to at most limit runes, cutting at the last
// whitespace before the limit when there is one.
func TruncateInput(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := runes[:limit]
	if !unicode.IsSpace(runes[limit]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimSpace(string(cut))
}

func truncateDescription(description string, limit int) string {
	runes := []rune(description)
	if len(runes) <= limit {
		return description
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
