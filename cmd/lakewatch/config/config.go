// Package config provides configuration parsing for the lakewatch server.
//
// It handles both command-line flags and environment variables, with
// flags taking precedence over environment variables. The Config struct
// contains all runtime configuration:
//   - HTTP listen address and logging (level, format)
//   - USGS endpoints, site numbers, and parameter codes
//   - Weather coordinates and timezone for the reservoir
//   - Visit store selection (memory, sqlite, redis) and its settings
//   - Analytics IP allow-list
//
// The status threshold table and the allow-list can additionally be
// loaded from a YAML file via --config-file, which overrides the flag
// and environment values for those two sections.
//
// Supported configuration sources (in order of precedence):
//  1. YAML config file (thresholds and allow-list only)
//  2. Command-line flags
//  3. Environment variables
//  4. Default values
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rwhasting/lakewatch/pkg/lake"
	"github.com/rwhasting/lakewatch/pkg/upstream"
)

// Config holds all lakewatch configuration.
type Config struct {
	Listen    string
	LogLevel  string
	LogFormat string

	USGSInstantURL string
	USGSDailyURL   string
	LakeSite       string
	FlowSite       string
	ElevationParam string
	FlowParam      string

	WeatherURL string
	Latitude   float64
	Longitude  float64
	Timezone   string

	UpstreamTimeout time.Duration
	HistoryDays     int
	FlowWindowDays  int

	VisitStore    string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AllowList  []string
	Thresholds lake.Thresholds

	ConfigFile string
}

// FileConfig is the YAML config-file schema.
type FileConfig struct {
	Thresholds *lake.Thresholds `yaml:"thresholds"`
	AllowList  []string         `yaml:"allow_list"`
}

// ParseFlags parses command-line flags with environment fallback and
// applies the optional YAML config file.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getenvDefault("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", getenvDefault("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFormat, "log-format", getenvDefault("LOG_FORMAT", "text"), "log format: text, json")

	flag.StringVar(&cfg.USGSInstantURL, "usgs-iv-url", getenvDefault("USGS_IV_URL", upstream.DefaultInstantURL), "USGS instantaneous-values endpoint")
	flag.StringVar(&cfg.USGSDailyURL, "usgs-dv-url", getenvDefault("USGS_DV_URL", upstream.DefaultDailyURL), "USGS daily-values endpoint")
	flag.StringVar(&cfg.LakeSite, "lake-site", getenvDefault("LAKE_SITE", "08167700"), "USGS site number for the reservoir gauge")
	flag.StringVar(&cfg.FlowSite, "flow-site", getenvDefault("FLOW_SITE", "08167800"), "USGS site number for the downstream flow gauge")
	flag.StringVar(&cfg.ElevationParam, "elevation-param", getenvDefault("ELEVATION_PARAM", "62614"), "USGS parameter code for lake elevation")
	flag.StringVar(&cfg.FlowParam, "flow-param", getenvDefault("FLOW_PARAM", "00060"), "USGS parameter code for discharge")

	flag.StringVar(&cfg.WeatherURL, "weather-url", getenvDefault("WEATHER_URL", upstream.DefaultWeatherURL), "weather API endpoint")
	flag.Float64Var(&cfg.Latitude, "lat", getenvFloatDefault("LATITUDE", 29.8691), "reservoir latitude")
	flag.Float64Var(&cfg.Longitude, "lon", getenvFloatDefault("LONGITUDE", -98.1983), "reservoir longitude")
	flag.StringVar(&cfg.Timezone, "timezone", getenvDefault("TIMEZONE", "America/Chicago"), "IANA timezone for calendar bucketing")

	flag.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", getenvDurationDefault("UPSTREAM_TIMEOUT", 10*time.Second), "timeout for outbound upstream requests")
	flag.IntVar(&cfg.HistoryDays, "history-days", getenvIntDefault("HISTORY_DAYS", 30), "window for /api/history, days")
	flag.IntVar(&cfg.FlowWindowDays, "flow-window-days", getenvIntDefault("FLOW_WINDOW_DAYS", 7), "window for /api/flow-12hr, days")

	flag.StringVar(&cfg.VisitStore, "visit-store", getenvDefault("VISIT_STORE", "sqlite"), "visit log backend: memory, sqlite, redis")
	flag.StringVar(&cfg.SQLitePath, "sqlite-path", getenvDefault("SQLITE_PATH", ""), "visit log SQLite path (default data/visits.db)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getenvDefault("REDIS_ADDR", "localhost:6379"), "Redis address for the visit log")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getenvDefault("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getenvIntDefault("REDIS_DB", 0), "Redis database number")

	allowList := flag.String("allow-list", getenvDefault("ANALYTICS_ALLOW_LIST", "127.0.0.1,::1"), "comma-separated IPs and CIDR ranges admitted to /analytics")
	flag.StringVar(&cfg.ConfigFile, "config-file", getenvDefault("CONFIG_FILE", ""), "optional YAML file overriding thresholds and allow-list")

	flag.Parse()

	cfg.AllowList = splitList(*allowList)
	cfg.Thresholds = lake.DefaultThresholds()

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile loads the YAML config file and overrides the threshold table
// and allow-list.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Thresholds != nil {
		c.Thresholds = *fc.Thresholds
	}
	if len(fc.AllowList) > 0 {
		c.AllowList = fc.AllowList
	}
	return nil
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	switch c.VisitStore {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("invalid visit-store %q (must be memory, sqlite, or redis)", c.VisitStore)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format %q (must be text or json)", c.LogFormat)
	}

	if c.LakeSite == "" || c.FlowSite == "" {
		return fmt.Errorf("lake-site and flow-site are required")
	}
	if c.HistoryDays <= 0 || c.FlowWindowDays <= 0 {
		return fmt.Errorf("history-days and flow-window-days must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	t := c.Thresholds
	if t.ConservationElevation <= t.EmptyElevation {
		return fmt.Errorf("conservation elevation %.1f must exceed empty elevation %.1f",
			t.ConservationElevation, t.EmptyElevation)
	}
	if t.FloodElevation < t.ConservationElevation {
		return fmt.Errorf("flood elevation %.1f must not be below conservation elevation %.1f",
			t.FloodElevation, t.ConservationElevation)
	}

	return nil
}

// Location resolves the configured timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloatDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
