// Package config loads the runtime configuration: environment-variable
// account/runtime settings (teacher's config.go/env.go pattern) plus a YAML
// file for engine-level knobs (preload/runonce/live/exactbars/...).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// AccountConfig holds the account/ops knobs driven purely from env, mirroring
// the teacher's flat Config struct.
type AccountConfig struct {
	DataRef     string
	StartCash   float64
	DryRun      bool
	Port        int
	MetricsPath string
}

// LoadAccountFromEnv reads AccountConfig from the process environment, with
// defaults if keys are missing — same shape as the teacher's
// loadConfigFromEnv, renamed to this module's domain.
func LoadAccountFromEnv() AccountConfig {
	return AccountConfig{
		DataRef:     getEnv("DATA_REF", "BTC-USD"),
		StartCash:   getEnvFloat("START_CASH", 10000.0),
		DryRun:      getEnvBool("DRY_RUN", true),
		Port:        getEnvInt("PORT", 8080),
		MetricsPath: getEnv("METRICS_PATH", "/metrics"),
	}
}

// LoadDotEnv loads a .env file into the process environment if present,
// replacing the teacher's hand-rolled parser in env.go with the library the
// rest of the pack already depends on for the same purpose.
func LoadDotEnv() {
	_ = godotenv.Load()
}
