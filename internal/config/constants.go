package config

import "time"

const (
	AppName    = "salesdash"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable.
	EnvPrefix = "SALESDASH"
	// ConfigFileEnv names the YAML file to load.
	ConfigFileEnv = "SALESDASH_CONFIG_FILE"

	DefaultHTTPTimeout  = 30 * time.Second
	DefaultImageBase    = "./public/images/"
	DefaultTopN         = 20
	MaxTopN             = 1000
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second
)

// DefaultImageExts are tried in order when building item image URLs.
var DefaultImageExts = []string{".webp", ".jpg", ".png"}
