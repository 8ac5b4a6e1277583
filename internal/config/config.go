package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv      = "NEWSDIGEST_CONFIG"
	newsAPIKeyEnv      = "NEWS_API_KEY"
	databaseDSNEnv     = "DATABASE_DSN"
	redisURLEnv        = "REDIS_URL"
	logLevelEnv        = "LOG_LEVEL"
	portEnv            = "PORT"
	summarizerProvEnv  = "SUMMARIZER_PROVIDER"
	summarizerKeyEnv   = "SUMMARIZER_API_KEY"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	anthropicAPIKeyEnv = "ANTHROPIC_API_KEY"
	hfTokenEnv         = "HF_API_TOKEN"
)

// Summarization providers understood by the app wiring.
const (
	ProviderInference = "inference"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	News       NewsConfig       `yaml:"news"`
	Extractor  ExtractorConfig  `yaml:"extractor"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN keeps
// saved articles in memory.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig enables the summary cache when URL is set.
type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

// NewsConfig groups settings for article sources.
type NewsConfig struct {
	Sources []string      `yaml:"sources"`
	Limit   int           `yaml:"limit"`
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
	Feeds   []FeedConfig  `yaml:"feeds"`
	Sites   []SiteConfig  `yaml:"sites"`
}

// NewsAPIConfig wires the newsapi.org client.
type NewsAPIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Country  string        `yaml:"country"`
	Timeout  time.Duration `yaml:"timeout"`
}

// FeedConfig is a single RSS/Atom feed.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SiteConfig describes a news-site section page scraped for headlines.
// Empty selectors fall back to generic defaults.
type SiteConfig struct {
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Item        string `yaml:"itemSelector"`
	Title       string `yaml:"titleSelector"`
	Link        string `yaml:"linkSelector"`
	Description string `yaml:"descriptionSelector"`
}

// ExtractorConfig tunes page fetching and body extraction.
type ExtractorConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MinLength    int           `yaml:"minLength"`
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	UserAgents   []string      `yaml:"userAgents"`
}

// SummarizerConfig selects and tunes the summarization backend.
type SummarizerConfig struct {
	Provider         string        `yaml:"provider"`
	Endpoint         string        `yaml:"endpoint"`
	Model            string        `yaml:"model"`
	APIKey           string        `yaml:"apiKey"`
	Timeout          time.Duration `yaml:"timeout"`
	MinInputLength   int           `yaml:"minInputLength"`
	MaxInputLength   int           `yaml:"maxInputLength"`
	DescriptionLimit int           `yaml:"descriptionLimit"`
	MaxSummaryTokens int           `yaml:"maxSummaryTokens"`
}

// PipelineConfig bounds batch concurrency.
type PipelineConfig struct {
	Workers     int           `yaml:"workers"`
	ItemTimeout time.Duration `yaml:"itemTimeout"`
}

// SchedulerConfig defines when the cache warm-up should run. An empty
// expression disables it.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
// An explicit path wins over NEWSDIGEST_CONFIG.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := parse(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindTimezone()

	return cfg
}

// parse decodes YAML over the values already present in cfg, so keys missing
// from the file keep their defaults.
func parse(raw []byte, cfg *Config) error {
	return yaml.Unmarshal(raw, cfg)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.News.NewsAPI.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisURLEnv); v != "" {
		c.Redis.URL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(portEnv); v != "" {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}

	if v := os.Getenv(summarizerProvEnv); v != "" {
		c.Summarizer.Provider = v
	}

	if v := os.Getenv(summarizerKeyEnv); v != "" {
		c.Summarizer.APIKey = v
	}

	if c.Summarizer.APIKey == "" {
		var providerKeyEnv string
		switch strings.ToLower(c.Summarizer.Provider) {
		case ProviderOpenAI:
			providerKeyEnv = openAIAPIKeyEnv
		case ProviderAnthropic:
			providerKeyEnv = anthropicAPIKeyEnv
		case ProviderInference:
			providerKeyEnv = hfTokenEnv
		}
		if providerKeyEnv != "" {
			c.Summarizer.APIKey = os.Getenv(providerKeyEnv)
		}
	}
}

func (c *Config) normalize() {
	def := defaultConfig()

	c.Summarizer.Provider = strings.ToLower(strings.TrimSpace(c.Summarizer.Provider))
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = ProviderNone
	}

	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.News.Limit <= 0 {
		c.News.Limit = def.News.Limit
	}
	if len(c.News.Sources) == 0 {
		c.News.Sources = def.News.Sources
	}
	if c.Extractor.Timeout <= 0 {
		c.Extractor.Timeout = def.Extractor.Timeout
	}
	if c.Extractor.MinLength <= 0 {
		c.Extractor.MinLength = def.Extractor.MinLength
	}
	if c.Extractor.MaxBodyBytes <= 0 {
		c.Extractor.MaxBodyBytes = def.Extractor.MaxBodyBytes
	}
	if len(c.Extractor.UserAgents) == 0 {
		c.Extractor.UserAgents = def.Extractor.UserAgents
	}
	if c.Summarizer.Timeout <= 0 {
		c.Summarizer.Timeout = def.Summarizer.Timeout
	}
	if c.Summarizer.MinInputLength <= 0 {
		c.Summarizer.MinInputLength = def.Summarizer.MinInputLength
	}
	if c.Summarizer.MaxInputLength < c.Summarizer.MinInputLength {
		c.Summarizer.MaxInputLength = def.Summarizer.MaxInputLength
	}
	if c.Summarizer.DescriptionLimit <= 0 {
		c.Summarizer.DescriptionLimit = def.Summarizer.DescriptionLimit
	}
	if c.Summarizer.MaxSummaryTokens <= 0 {
		c.Summarizer.MaxSummaryTokens = def.Summarizer.MaxSummaryTokens
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = def.Pipeline.Workers
	}
	if c.Pipeline.ItemTimeout <= 0 {
		c.Pipeline.ItemTimeout = def.Pipeline.ItemTimeout
	}
	if c.Redis.TTL <= 0 {
		c.Redis.TTL = def.Redis.TTL
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Redis:   RedisConfig{TTL: 6 * time.Hour},
		News: NewsConfig{
			Sources: []string{"newsapi"},
			Limit:   20,
			NewsAPI: NewsAPIConfig{
				Endpoint: "https://newsapi.org/v2",
				Country:  "us",
				Timeout:  15 * time.Second,
			},
		},
		Extractor: ExtractorConfig{
			Timeout:      10 * time.Second,
			MinLength:    200,
			MaxBodyBytes: 5 << 20,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
				"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
			},
		},
		Summarizer: SummarizerConfig{
			Provider:         ProviderNone,
			Timeout:          30 * time.Second,
			MinInputLength:   50,
			MaxInputLength:   3000,
			DescriptionLimit: 150,
			MaxSummaryTokens: 150,
		},
		Pipeline:  PipelineConfig{Workers: 6, ItemTimeout: 45 * time.Second},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
	}
}
