package config

import "time"

// Config holds runtime settings for the bizkeeper client.
//
// Units: every interval is a time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	AccessToken         string
	FeatureFlags        map[string]bool
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	SyncDebounce        time.Duration
	RequestTimeout      time.Duration
	LogLevel            string
	LogFormat           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "bizkeeper.db"
	c.FeatureFlags = map[string]bool{}
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = time.Minute
	c.SyncDebounce = 2 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
