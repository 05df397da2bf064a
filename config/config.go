package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Rating floor presets used by the listing endpoints
const (
	RatingPresetStandard = "standard"
	RatingPresetStrict   = "strict"
)

// Config holds all application-level configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Anthropic AnthropicConfig
	Listings  ListingsConfig
	Ranking   RankingConfig
	Scraper   ScraperConfig
	LogLevel  string
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Address        string
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// DatabaseConfig configures the Postgres history store. An empty URL disables it.
type DatabaseConfig struct {
	URL string
}

// RedisConfig configures the review-signal cache. An empty address disables it.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	SignalTTL time.Duration
}

// AnthropicConfig configures the text-analysis collaborator. An empty key disables it.
type AnthropicConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxRetries     int
	RateLimitDelay int // milliseconds between calls
	Timeout        time.Duration
}

// ListingsConfig configures the listing search and review provider
type ListingsConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimitDelay int // milliseconds between requests
	RoomURLPrefix  string
}

// RankingConfig holds filter thresholds and ranking limits
type RankingConfig struct {
	RatingPresets     map[string]float64
	SearchPreset      string
	MaxCandidates     int
	ReviewsPerListing int
	TopN              int
	DefaultKeywords   []string
	DefaultMinPrice   float64
	DefaultMaxPrice   float64
}

// ScraperConfig holds the flight site location and every bounded wait of a scrape
type ScraperConfig struct {
	BaseURL             string
	QuerySuffix         string
	BookingPathPrefix   string
	SortSelector        string
	SettleMarker        string
	Headless            bool
	UserAgent           string
	NavigationTimeout   time.Duration
	SettleDwell         time.Duration
	SortTimeout         time.Duration
	SortDwell           time.Duration
	ExtractTimeout      time.Duration
	ExtractPollInterval time.Duration
	RedirectTimeout     time.Duration
}

// MinRating returns the floor for preset, falling back to the standard preset
func (r RankingConfig) MinRating(preset string) float64 {
	if v, ok := r.RatingPresets[preset]; ok {
		return v
	}
	return r.RatingPresets[RatingPresetStandard]
}

// Load reads .env, an optional config file and environment variables, in increasing
// order of precedence, over built-in defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// API_KEY is still accepted for older .env files
	_ = v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", "API_KEY")
	_ = v.BindEnv("database.url", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:        v.GetString("server.address"),
			CORSOrigins:    getStringList(v, "server.cors_origins"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		Redis: RedisConfig{
			Address:   v.GetString("redis.address"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			SignalTTL: v.GetDuration("redis.signal_ttl"),
		},
		Anthropic: AnthropicConfig{
			APIKey:         v.GetString("anthropic.api_key"),
			BaseURL:        v.GetString("anthropic.base_url"),
			Model:          v.GetString("anthropic.model"),
			MaxRetries:     v.GetInt("anthropic.max_retries"),
			RateLimitDelay: v.GetInt("anthropic.rate_limit_delay_ms"),
			Timeout:        v.GetDuration("anthropic.timeout"),
		},
		Listings: ListingsConfig{
			BaseURL:        v.GetString("listings.base_url"),
			Timeout:        v.GetDuration("listings.timeout"),
			MaxRetries:     v.GetInt("listings.max_retries"),
			RetryBaseDelay: v.GetDuration("listings.retry_base_delay"),
			RateLimitDelay: v.GetInt("listings.rate_limit_delay_ms"),
			RoomURLPrefix:  v.GetString("listings.room_url_prefix"),
		},
		Ranking: RankingConfig{
			RatingPresets: map[string]float64{
				RatingPresetStandard: v.GetFloat64("ranking.rating_standard"),
				RatingPresetStrict:   v.GetFloat64("ranking.rating_strict"),
			},
			SearchPreset:      v.GetString("ranking.search_preset"),
			MaxCandidates:     v.GetInt("ranking.max_candidates"),
			ReviewsPerListing: v.GetInt("ranking.reviews_per_listing"),
			TopN:              v.GetInt("ranking.top_n"),
			DefaultKeywords:   getStringList(v, "ranking.default_keywords"),
			DefaultMinPrice:   v.GetFloat64("ranking.default_min_price"),
			DefaultMaxPrice:   v.GetFloat64("ranking.default_max_price"),
		},
		Scraper: ScraperConfig{
			BaseURL:             v.GetString("scraper.base_url"),
			QuerySuffix:         v.GetString("scraper.query_suffix"),
			BookingPathPrefix:   v.GetString("scraper.booking_path_prefix"),
			SortSelector:        v.GetString("scraper.sort_selector"),
			SettleMarker:        v.GetString("scraper.settle_marker"),
			Headless:            v.GetBool("scraper.headless"),
			UserAgent:           v.GetString("scraper.user_agent"),
			NavigationTimeout:   v.GetDuration("scraper.navigation_timeout"),
			SettleDwell:         v.GetDuration("scraper.settle_dwell"),
			SortTimeout:         v.GetDuration("scraper.sort_timeout"),
			SortDwell:           v.GetDuration("scraper.sort_dwell"),
			ExtractTimeout:      v.GetDuration("scraper.extract_timeout"),
			ExtractPollInterval: v.GetDuration("scraper.extract_poll_interval"),
			RedirectTimeout:     v.GetDuration("scraper.redirect_timeout"),
		},
		LogLevel: v.GetString("log.level"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":5001")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.request_timeout", 3*time.Minute)

	v.SetDefault("database.url", "")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.signal_ttl", 24*time.Hour)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-3-7-sonnet-20250219")
	v.SetDefault("anthropic.max_retries", 2)
	v.SetDefault("anthropic.rate_limit_delay_ms", 0)
	v.SetDefault("anthropic.timeout", 30*time.Second)

	v.SetDefault("listings.base_url", "http://localhost:8081")
	v.SetDefault("listings.timeout", 60*time.Second)
	v.SetDefault("listings.max_retries", 3)
	v.SetDefault("listings.retry_base_delay", time.Second)
	v.SetDefault("listings.rate_limit_delay_ms", 500)
	v.SetDefault("listings.room_url_prefix", "https://www.airbnb.com/rooms/")

	v.SetDefault("ranking.rating_standard", 4.3)
	v.SetDefault("ranking.rating_strict", 4.5)
	v.SetDefault("ranking.search_preset", RatingPresetStandard)
	v.SetDefault("ranking.max_candidates", 10)
	v.SetDefault("ranking.reviews_per_listing", 3)
	v.SetDefault("ranking.top_n", 3)
	v.SetDefault("ranking.default_keywords", []string{"clean", "comfortable", "convenient"})
	v.SetDefault("ranking.default_min_price", 0.0)
	v.SetDefault("ranking.default_max_price", 1000.0)

	v.SetDefault("scraper.base_url", "https://www.momondo.com")
	v.SetDefault("scraper.query_suffix", "ucs=ffm4n7&sort=bestflight_a")
	v.SetDefault("scraper.booking_path_prefix", "/book/flight")
	v.SetDefault("scraper.sort_selector", `div[aria-label="Cheapest"]`)
	v.SetDefault("scraper.settle_marker", "")
	v.SetDefault("scraper.headless", true)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("scraper.navigation_timeout", 45*time.Second)
	v.SetDefault("scraper.settle_dwell", 7*time.Second)
	v.SetDefault("scraper.sort_timeout", 5*time.Second)
	v.SetDefault("scraper.sort_dwell", 3*time.Second)
	v.SetDefault("scraper.extract_timeout", 10*time.Second)
	v.SetDefault("scraper.extract_poll_interval", 500*time.Millisecond)
	v.SetDefault("scraper.redirect_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
}

// getStringList accepts both YAML lists and comma-separated environment values
func getStringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.Ranking.MaxCandidates <= 0 || c.Ranking.ReviewsPerListing <= 0 || c.Ranking.TopN <= 0 {
		return errors.New("ranking limits must be positive")
	}
	if c.Scraper.NavigationTimeout <= 0 || c.Scraper.ExtractTimeout <= 0 || c.Scraper.RedirectTimeout <= 0 {
		return errors.New("scraper timeouts must be positive")
	}
	if c.Scraper.BaseURL == "" {
		return errors.New("scraper base url is required")
	}
	return nil
}
