package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"NewsRelay/internal/scanner"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "NEWSRELAY_CONFIG"
	databaseDriverEnv  = "DATABASE_DRIVER"
	databaseDSNEnv     = "DATABASE_DSN"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	legacyTokenEnv     = "TOKEN"
	telegramChannelEnv = "TELEGRAM_CHANNEL_ID"
	legacyChannelEnv   = "CHANNEL_ID"
	logLevelEnv        = "LOG_LEVEL"
	metricsAddrEnv     = "METRICS_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	HTTP      HTTPConfig      `yaml:"http"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sources   []SourceConfig  `yaml:"sources"`
}

// LoggingConfig sets the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the ledger storage.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// TelegramConfig wires all data required to talk to the Bot API.
type TelegramConfig struct {
	BotToken     string  `yaml:"botToken"`
	ChannelID    string  `yaml:"channelId"`
	AllowedUsers []int64 `yaml:"allowedUsers"`
	PollTimeout  int     `yaml:"pollTimeout"`
}

// HTTPConfig tunes source page retrieval.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// SchedulerConfig defines the unattended publish loop.
type SchedulerConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Interval time.Duration  `yaml:"interval"`
	Count    int            `yaml:"count"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// MetricsConfig controls the Prometheus endpoint; empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SourceConfig describes a single news source with its extraction rule.
type SourceConfig struct {
	ID             string `yaml:"id"`
	Kind           string `yaml:"kind"`
	FetchURL       string `yaml:"fetchUrl"`
	ItemSelector   string `yaml:"itemSelector"`
	TitleSelector  string `yaml:"titleSelector"`
	LinkSelector   string `yaml:"linkSelector"`
	LinkAttr       string `yaml:"linkAttr"`
	LinkPrefix     string `yaml:"linkPrefix"`
	LinkPrefixRule string `yaml:"linkPrefixRule"`
}

// Rule converts the config entry into a scanner rule.
func (s SourceConfig) Rule() scanner.Rule {
	return scanner.Rule{
		SourceID:      s.ID,
		Kind:          s.Kind,
		FetchURL:      s.FetchURL,
		ItemSelector:  s.ItemSelector,
		TitleSelector: s.TitleSelector,
		LinkSelector:  s.LinkSelector,
		LinkAttr:      s.LinkAttr,
		LinkPrefix:    s.LinkPrefix,
		PrefixRule:    scanner.PrefixRule(s.LinkPrefixRule),
	}
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit YAML path; an empty path falls back to NEWSRELAY_CONFIG.
func LoadFrom(path string) Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: cannot load .env: %v", err)
	}

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if fileCfg, err := ReadFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// ReadFile parses a YAML config file without applying defaults.
func ReadFile(path string) (Config, error) {
	var fileCfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileCfg, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return fileCfg, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

// Validate reports settings the bot cannot run without.
func (c Config) Validate() error {
	var errs []error
	if c.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram bot token is not set"))
	}
	if c.Telegram.ChannelID == "" {
		errs = append(errs, errors.New("telegram channel id is not set"))
	}
	seen := map[string]bool{}
	for _, src := range c.Sources {
		if src.ID == "" || src.FetchURL == "" {
			errs = append(errs, errors.New("source entries need id and fetchUrl"))
			continue
		}
		if seen[src.ID] {
			errs = append(errs, errors.New("duplicate source id "+src.ID))
		}
		seen[src.ID] = true
	}
	return errors.Join(errs...)
}

// SourceIDs lists configured source identifiers in config order.
func (c Config) SourceIDs() []string {
	ids := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		ids = append(ids, src.ID)
	}
	return ids
}

func (c *Config) applyEnvOverrides() {
	if v := firstEnv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := firstEnv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := firstEnv(telegramTokenEnv, legacyTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := firstEnv(telegramChannelEnv, legacyChannelEnv); v != "" {
		c.Telegram.ChannelID = v
	}
	if v := firstEnv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := firstEnv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
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

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChannelID != "" {
		base.Telegram.ChannelID = override.Telegram.ChannelID
	}
	if len(override.Telegram.AllowedUsers) > 0 {
		base.Telegram.AllowedUsers = override.Telegram.AllowedUsers
	}
	if override.Telegram.PollTimeout > 0 {
		base.Telegram.PollTimeout = override.Telegram.PollTimeout
	}

	if override.HTTP.Timeout > 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.UserAgent != "" {
		base.HTTP.UserAgent = override.HTTP.UserAgent
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.Count > 0 {
		base.Scheduler.Count = override.Scheduler.Count
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "news.db"},
		Telegram: TelegramConfig{PollTimeout: 60},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "NewsRelay/1.0",
		},
		Scheduler: SchedulerConfig{
			Interval: time.Hour,
			Count:    5,
			Timezone: defaultTimezone,
			location: tz,
		},
		Sources: []SourceConfig{
			{
				ID:             "Habr",
				Kind:           "html",
				FetchURL:       "https://habr.com/ru/news/",
				ItemSelector:   "article",
				TitleSelector:  "h2",
				LinkSelector:   "h2 a",
				LinkAttr:       "href",
				LinkPrefix:     "https://habr.com",
				LinkPrefixRule: string(scanner.PrefixAlways),
			},
			{
				ID:             "RIA",
				Kind:           "html",
				FetchURL:       "https://ria.ru/world/",
				ItemSelector:   "a.list-item__title",
				LinkAttr:       "href",
				LinkPrefix:     "https://ria.ru",
				LinkPrefixRule: string(scanner.PrefixRelative),
			},
			{
				ID:       "Lenta",
				Kind:     "feed",
				FetchURL: "https://lenta.ru/rss/news",
			},
		},
	}
}
