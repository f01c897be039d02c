package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PLCDirectoryURL string
	FirehoseURL     string

	OriginProbeTimeoutSecs  int
	RecordFetchTimeoutSecs  int
	IdentityCacheTTLSecs    int
	StalenessThresholdDays  int
	MaxVersions             int
	ScanPageSize            int
	FirehoseBaseDelayMillis int
	FirehoseMaxDelayMillis  int
	FirehoseMaxAttempts     int
	FirehoseJitter          bool
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                addr,
		PostgresDSN:             os.Getenv("POSTGRES_DSN"),
		LogLevel:                envDefault("LOG_LEVEL", "info"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 envIntDefault("REDIS_DB", 0),
		PLCDirectoryURL:         envDefault("PLC_DIRECTORY_URL", "https://plc.directory"),
		FirehoseURL:             os.Getenv("FIREHOSE_URL"),
		OriginProbeTimeoutSecs:  envIntDefault("ORIGIN_PROBE_TIMEOUT_SECONDS", 10),
		RecordFetchTimeoutSecs:  envIntDefault("RECORD_FETCH_TIMEOUT_SECONDS", 5),
		IdentityCacheTTLSecs:    envIntDefault("IDENTITY_CACHE_TTL_SECONDS", 300),
		StalenessThresholdDays:  envIntDefault("STALENESS_THRESHOLD_DAYS", 7),
		MaxVersions:             envIntDefault("MAX_VERSIONS", 100),
		ScanPageSize:            envIntDefault("SCAN_PAGE_SIZE", 100),
		FirehoseBaseDelayMillis: envIntDefault("FIREHOSE_BASE_DELAY_MS", 1000),
		FirehoseMaxDelayMillis:  envIntDefault("FIREHOSE_MAX_DELAY_MS", 30000),
		FirehoseMaxAttempts:     envIntDefault("FIREHOSE_MAX_ATTEMPTS", 0),
		FirehoseJitter:          envBoolDefault("FIREHOSE_JITTER", true),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

func (c Config) OriginProbeTimeout() time.Duration {
	return time.Duration(c.OriginProbeTimeoutSecs) * time.Second
}

func (c Config) RecordFetchTimeout() time.Duration {
	return time.Duration(c.RecordFetchTimeoutSecs) * time.Second
}

func (c Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.IdentityCacheTTLSecs) * time.Second
}

func (c Config) StalenessThreshold() time.Duration {
	return time.Duration(c.StalenessThresholdDays) * 24 * time.Hour
}

func (c Config) FirehoseBaseDelay() time.Duration {
	return time.Duration(c.FirehoseBaseDelayMillis) * time.Millisecond
}

func (c Config) FirehoseMaxDelay() time.Duration {
	return time.Duration(c.FirehoseMaxDelayMillis) * time.Millisecond
}
