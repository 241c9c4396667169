package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Defaults(t *testing.T) {
	cfg, err := Decode(New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "crowdfundingCampaigns", cfg.Catalog.Key)
	assert.Equal(t, 10, cfg.Catalog.RetainFloor)
	assert.Equal(t, "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4", cfg.Wallets.ETH)
	assert.Equal(t, 300, cfg.Task.Interval)
	assert.Equal(t, 1800, cfg.Task.SessionIdle)
}

func TestDecode_EnvOverride(t *testing.T) {
	t.Setenv("CROWDFUND_SERVER_PORT", "9090")
	t.Setenv("CROWDFUND_CATALOG_RETAIN_FLOOR", "3")

	cfg, err := Decode(New())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Catalog.RetainFloor)
}

func TestDecode_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	body := []byte("database:\n  driver: sqlite\n  path: /tmp/x.db\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), body, 0o600))

	v := New()
	v.AddConfigPath(dir)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.GetLevel())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite", Path: "x.db"},
			Catalog:  CatalogConfig{RetainFloor: 10},
			Task:     TaskConfig{Interval: 300, SessionIdle: 1800},
			Wallets:  WalletsConfig{ETH: "0xe7Ae6f99700B3463Ddf6B7fa807Ff735aDf7EAC4"},
		}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Database = DatabaseConfig{Driver: "postgres"}
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Wallets.ETH = "not-an-address"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Catalog.RetainFloor = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Task.SessionIdle = 0
	assert.Error(t, cfg.Validate())
}
