package configuration

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"

	"dealfinder/internal/logger"
	"dealfinder/internal/scan"
)

type Config struct {
	ServerAddress     string
	DatabaseURI       string
	RedisAddress      string
	MarketplaceURL    string
	DiscordWebhookURL string
	UserAgent         string
	CatalogPath       string
	ScanInterval      time.Duration
	Policy            scan.Policy
	LogLevel          logger.Level
	LogToFile         bool
	AdminSecretKey    jwk.Key
}

type tomlConfig struct {
	ServerAddress     string `toml:"server_address"`
	DatabaseURI       string `toml:"database_uri"`
	RedisAddress      string `toml:"redis_address"`
	MarketplaceURL    string `toml:"marketplace_url"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	UserAgent         string `toml:"user_agent"`
	CatalogPath       string `toml:"catalog_path"`

	ScanInterval        string `toml:"scan_interval"`
	PageDelay           string `toml:"page_delay"`
	ListingDelay        string `toml:"listing_delay"`
	QueryDelay          string `toml:"query_delay"`
	RetryDelay          string `toml:"retry_delay"`
	SessionResetDelay   string `toml:"session_reset_delay"`
	MaxPagesPerSearch   int    `toml:"max_pages_per_search"`
	PerPage             int    `toml:"per_page"`
	MaxQueriesPerCycle  int    `toml:"max_queries_per_cycle"`
	PageRetries         int    `toml:"page_retries"`
	MinSellerReputation int    `toml:"min_seller_reputation"`
	SearchOrder         string `toml:"search_order"`

	LogLevel       string `toml:"log_level"`
	LogToFile      bool   `toml:"log_to_file"`
	AdminSecretKey string `toml:"admin_secret_key"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}
	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}
	if tc.MarketplaceURL == "" {
		return nil, errors.New("marketplace_url is not set")
	}
	if tc.DiscordWebhookURL == "" {
		return nil, errors.New("discord_webhook_url is not set")
	}

	if tc.ScanInterval == "" {
		tc.ScanInterval = "15m"
	}
	scanInterval, err := time.ParseDuration(tc.ScanInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse scan_interval: %s", tc.ScanInterval)
	}
	if scanInterval < time.Minute {
		return nil, errors.Errorf("scan_interval too short (%v), minimum interval: 1m", scanInterval)
	}

	policy := scan.DefaultPolicy()
	if err := overrideDelay(&policy.PageDelay, tc.PageDelay, "page_delay"); err != nil {
		return nil, err
	}
	if err := overrideDelay(&policy.ListingDelay, tc.ListingDelay, "listing_delay"); err != nil {
		return nil, err
	}
	if err := overrideDelay(&policy.QueryDelay, tc.QueryDelay, "query_delay"); err != nil {
		return nil, err
	}
	if err := overrideDelay(&policy.RetryDelay, tc.RetryDelay, "retry_delay"); err != nil {
		return nil, err
	}
	if err := overrideDelay(&policy.SessionResetDelay, tc.SessionResetDelay, "session_reset_delay"); err != nil {
		return nil, err
	}
	if tc.MaxPagesPerSearch > 0 {
		policy.MaxPagesPerSearch = tc.MaxPagesPerSearch
	}
	if tc.PerPage > 0 {
		policy.PerPage = tc.PerPage
	}
	if tc.MaxQueriesPerCycle > 0 {
		policy.MaxQueriesPerCycle = tc.MaxQueriesPerCycle
	}
	if tc.PageRetries > 0 {
		policy.PageRetries = tc.PageRetries
	}
	if tc.MinSellerReputation > 0 {
		policy.MinSellerReputation = tc.MinSellerReputation
	}
	if tc.SearchOrder != "" {
		policy.SearchOrder = tc.SearchOrder
	}

	if tc.LogLevel == "" {
		tc.LogLevel = "INFO"
	}
	logLevel, err := logger.ParseLevel(tc.LogLevel)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse log_level: %s", tc.LogLevel)
	}

	if tc.AdminSecretKey == "" {
		return nil, errors.New("admin_secret_key is not set")
	}
	adminSecretKey, err := jwk.FromRaw([]byte(tc.AdminSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from admin_secret_key")
	}

	return &Config{
		ServerAddress:     tc.ServerAddress,
		DatabaseURI:       tc.DatabaseURI,
		RedisAddress:      tc.RedisAddress,
		MarketplaceURL:    tc.MarketplaceURL,
		DiscordWebhookURL: tc.DiscordWebhookURL,
		UserAgent:         tc.UserAgent,
		CatalogPath:       tc.CatalogPath,
		ScanInterval:      scanInterval,
		Policy:            policy,
		LogLevel:          logLevel,
		LogToFile:         tc.LogToFile,
		AdminSecretKey:    adminSecretKey,
	}, nil
}

func overrideDelay(dst *time.Duration, value string, name string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return errors.Wrapf(err, "failed to parse %s: %s", name, value)
	}
	if d < 0 {
		return errors.Errorf("%s must not be negative: %s", name, value)
	}
	*dst = d
	return nil
}
