package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bizkeeper/internal/flagx"
	"github.com/dmitrijs2005/bizkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	DatabasePath        string          `json:"database_path"`
	AccessToken         string          `json:"access_token"`
	FeatureFlags        map[string]bool `json:"feature_flags"`
	OnlineCheckInterval timex.Duration  `json:"online_check_interval"`
	SyncInterval        timex.Duration  `json:"sync_interval"`
	SyncDebounce        timex.Duration  `json:"sync_debounce"`
	RequestTimeout      timex.Duration  `json:"request_timeout"`
	LogLevel            string          `json:"log_level"`
	LogFormat           string          `json:"log_format"`
}

// parseJson overlays Config with the values present in the JSON file given
// by -c or -config. Absent keys keep their current value. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.FeatureFlags != nil {
		cfg.FeatureFlags = jc.FeatureFlags
	}

	setDuration(cfg, jc)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(cfg *Config, jc JsonConfig) {
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.SyncDebounce.Duration != 0 {
		cfg.SyncDebounce = jc.SyncDebounce.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}
