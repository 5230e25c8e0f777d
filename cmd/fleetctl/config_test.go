package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/config"
)

func TestSettingsRedactsSecrets(t *testing.T) {
	cfg := config.Config{
		Database: config.DatabaseConfig{URL: "postgres://fleet:hunter2@db:5432/fleet"},
		Admin:    config.AdminConfig{TokenHash: "argon2id$v=19$..."},
		Logs:     config.LogsConfig{EncryptionKey: "c2VjcmV0"},
		Sync:     config.SyncConfig{MaxFutureSkew: 24 * time.Hour},
		Software: config.SoftwareConfig{Seed: []config.SoftwareSeed{{Name: "7zip", WingetID: "7zip.7zip"}}},
	}

	out := settings(reflect.ValueOf(cfg), "").(map[string]any)

	db := out["database"].(map[string]any)
	require.Equal(t, "postgres://fleet:xxxxx@db:5432/fleet", db["url"])
	require.Equal(t, redacted, out["admin"].(map[string]any)["token_hash"])
	require.Equal(t, redacted, out["logs"].(map[string]any)["encryption_key"])
	require.Equal(t, "24h0m0s", out["sync"].(map[string]any)["max_future_skew"])

	seed := out["software"].(map[string]any)["seed"].([]any)
	require.Equal(t, "7zip", seed[0].(map[string]any)["name"])
}
