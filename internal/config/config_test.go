package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "https://plc.directory", cfg.PLCDirectoryURL)
	require.Equal(t, 10*time.Second, cfg.OriginProbeTimeout())
	require.Equal(t, 5*time.Second, cfg.RecordFetchTimeout())
	require.Equal(t, 5*time.Minute, cfg.IdentityCacheTTL())
	require.Equal(t, 7*24*time.Hour, cfg.StalenessThreshold())
	require.Equal(t, 100, cfg.MaxVersions)
	require.Equal(t, 100, cfg.ScanPageSize)
	require.Equal(t, time.Second, cfg.FirehoseBaseDelay())
	require.Equal(t, 30*time.Second, cfg.FirehoseMaxDelay())
	require.Zero(t, cfg.FirehoseMaxAttempts)
	require.True(t, cfg.FirehoseJitter)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PLC_DIRECTORY_URL", "https://plc.internal")
	t.Setenv("FIREHOSE_URL", "wss://relay.example.com/xrpc/com.atproto.sync.subscribeRepos")
	t.Setenv("FIREHOSE_BASE_DELAY_MS", "500")
	t.Setenv("FIREHOSE_MAX_DELAY_MS", "10000")
	t.Setenv("FIREHOSE_JITTER", "false")
	t.Setenv("STALENESS_THRESHOLD_DAYS", "3")
	t.Setenv("MAX_VERSIONS", "50")

	cfg := FromEnv()
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "https://plc.internal", cfg.PLCDirectoryURL)
	require.Equal(t, "wss://relay.example.com/xrpc/com.atproto.sync.subscribeRepos", cfg.FirehoseURL)
	require.Equal(t, 500*time.Millisecond, cfg.FirehoseBaseDelay())
	require.Equal(t, 10*time.Second, cfg.FirehoseMaxDelay())
	require.False(t, cfg.FirehoseJitter)
	require.Equal(t, 3*24*time.Hour, cfg.StalenessThreshold())
	require.Equal(t, 50, cfg.MaxVersions)
}

func TestFromEnv_RejectsGarbageInts(t *testing.T) {
	t.Setenv("MAX_VERSIONS", "not-a-number")
	t.Setenv("SCAN_PAGE_SIZE", "-5")

	cfg := FromEnv()
	require.Equal(t, 100, cfg.MaxVersions)
	require.Equal(t, 100, cfg.ScanPageSize)
}
