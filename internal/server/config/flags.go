package config

import (
	"github.com/spf13/pflag"
)

const (
	flagConfig        = "config"
	flagAddress       = "address"
	flagDatabaseDSN   = "database-dsn"
	flagSecretKey     = "secret-key"
	flagTokenValidity = "token-validity"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
)

// RegisterFlags declares the server flags on fs. Defaults shown in help
// are the built-in ones; only flags set explicitly override JSON values.
//
// Supported flags:
//
//	-c, --config string          JSON config file
//	-a, --address string         gRPC bind address (e.g., ":50051")
//	-d, --database-dsn string    PostgreSQL DSN
//	-s, --secret-key string      JWT HMAC secret key
//	-t, --token-validity dur     access token validity (e.g., "24h")
//	    --log-level string       debug, info, warn or error
//	    --log-format string      text or json
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(flagConfig, "c", "", "path to JSON config file")
	fs.StringP(flagAddress, "a", d.EndpointAddrGRPC, "address and port to run server")
	fs.StringP(flagDatabaseDSN, "d", d.DatabaseDSN, "database DSN")
	fs.StringP(flagSecretKey, "s", d.SecretKey, "secret key")
	fs.DurationP(flagTokenValidity, "t", d.AccessTokenValidityDuration, "access token validity duration")
	fs.String(flagLogLevel, d.LogLevel, "log level")
	fs.String(flagLogFormat, d.LogFormat, "log format (text or json)")
}

// applyFlags copies every explicitly set flag into config.
func applyFlags(config *Config, fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case flagAddress:
			config.EndpointAddrGRPC, err = fs.GetString(f.Name)
		case flagDatabaseDSN:
			config.DatabaseDSN, err = fs.GetString(f.Name)
		case flagSecretKey:
			config.SecretKey, err = fs.GetString(f.Name)
		case flagTokenValidity:
			config.AccessTokenValidityDuration, err = fs.GetDuration(f.Name)
		case flagLogLevel:
			config.LogLevel, err = fs.GetString(f.Name)
		case flagLogFormat:
			config.LogFormat, err = fs.GetString(f.Name)
		}
	})
	return err
}
