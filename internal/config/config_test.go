package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(newsAPIKeyEnv, "")
	t.Setenv(summarizerProvEnv, "")

	cfg := Load("")

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Extractor.MinLength != 200 {
		t.Fatalf("unexpected min length: %d", cfg.Extractor.MinLength)
	}
	if cfg.Extractor.Timeout != 10*time.Second {
		t.Fatalf("unexpected extractor timeout: %v", cfg.Extractor.Timeout)
	}
	if cfg.Summarizer.Provider != ProviderNone {
		t.Fatalf("unexpected provider: %s", cfg.Summarizer.Provider)
	}
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("unexpected location: %s", cfg.Scheduler.Location())
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	raw := `
summarizer:
  provider: OpenAI
  model: gpt-4o-mini
  maxInputLength: 1200
pipeline:
  workers: 3
  itemTimeout: 20s
news:
  sources: [rss]
  feeds:
    - name: hn
      url: https://hnrss.org/newest
  sites:
    - name: Example
      url: https://news.example.com/world/
      itemSelector: div.card
scheduler:
  timezone: Not/AZone
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(summarizerKeyEnv, "")
	t.Setenv(summarizerProvEnv, "")
	t.Setenv(portEnv, "9090")

	cfg := Load(path)

	if cfg.Summarizer.Provider != ProviderOpenAI {
		t.Fatalf("expected provider to be lowercased, got %s", cfg.Summarizer.Provider)
	}
	if cfg.Summarizer.APIKey != "sk-test" {
		t.Fatalf("expected provider key from env, got %q", cfg.Summarizer.APIKey)
	}
	if cfg.Summarizer.MaxInputLength != 1200 {
		t.Fatalf("unexpected max input: %d", cfg.Summarizer.MaxInputLength)
	}
	if cfg.Summarizer.MinInputLength != 50 {
		t.Fatalf("default min input lost: %d", cfg.Summarizer.MinInputLength)
	}
	if cfg.Pipeline.Workers != 3 || cfg.Pipeline.ItemTimeout != 20*time.Second {
		t.Fatalf("unexpected pipeline config: %+v", cfg.Pipeline)
	}
	if len(cfg.News.Feeds) != 1 || cfg.News.Feeds[0].Name != "hn" {
		t.Fatalf("unexpected feeds: %+v", cfg.News.Feeds)
	}
	if len(cfg.News.Sites) != 1 || cfg.News.Sites[0].Item != "div.card" || cfg.News.Sites[0].Title != "" {
		t.Fatalf("unexpected sites: %+v", cfg.News.Sites)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Scheduler.Location().String() != "UTC" {
		t.Fatalf("invalid timezone should revert to UTC, got %s", cfg.Scheduler.Location())
	}
}

func TestLoadBrokenFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yml")
	if err := os.WriteFile(path, []byte("pipeline: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(portEnv, "")

	cfg := Load(path)
	if cfg.Pipeline.Workers != 6 {
		t.Fatalf("expected default workers, got %d", cfg.Pipeline.Workers)
	}
}
