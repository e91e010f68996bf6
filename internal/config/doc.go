// Package config loads salesdash configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default() values
//  2. A YAML file named by SALESDASH_CONFIG_FILE, or config.yaml when present
//  3. Environment variables prefixed SALESDASH_
//
// Nested sections map to prefixed variables, for example:
//
//	SALESDASH_SERVER_PORT=8080
//	SALESDASH_SOURCES_JSON_URLS=https://script.google.com/macros/s/.../exec?json=1
//	SALESDASH_REPORT_DATE_PRIORITY=cell-first
//	SALESDASH_REFRESH_SCHEDULE="*/15 * * * *"
//
// Load validates the result before returning it.
package config
