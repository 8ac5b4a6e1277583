package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"NewsDigest/internal/domain"
)

func TestKey(t *testing.T) {
	t.Parallel()

	a := Key("https://news.example.com/a")
	if !strings.HasPrefix(a, keyPrefix) || len(a) != len(keyPrefix)+64 {
		t.Fatalf("unexpected key %s", a)
	}
	if a != Key("https://news.example.com/a") {
		t.Fatalf("key must be stable")
	}
	if a == Key("https://news.example.com/b") {
		t.Fatalf("distinct urls must not collide")
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	got, err := decode([]byte(`{"summary_text":"Cached.","source":"model"}`))
	if err != nil || got.Text != "Cached." || got.Source != domain.SummaryFromModel {
		t.Fatalf("unexpected decode %+v %v", got, err)
	}

	for _, raw := range []string{`not json`, `{"summary_text":"","source":"model"}`, `{"summary_text":"x","source":"fallback-description"}`} {
		if _, err := decode([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, _, err := Connect(context.Background(), "http://not-redis", time.Minute); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPutIgnoresFallbacks(t *testing.T) {
	t.Parallel()

	// A nil client would panic if Put reached Redis.
	c := New(nil, time.Minute)
	err := c.Put(context.Background(), "https://x", domain.SummaryResult{Text: "teaser", Source: domain.SummaryFromDescription})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
}
