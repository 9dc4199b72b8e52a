package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/engagements-test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/engagements-test.db", cfg.Database.Path)
	assert.Empty(t, cfg.Database.MigrationsDir)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Notify.Enabled)
	assert.Equal(t, "chat_id", cfg.Lark.ReceiveIDType)
	assert.Equal(t, "configs/templates.yaml", cfg.Templates.CatalogPath)
	assert.Equal(t, time.Hour, cfg.Worker.OverdueInterval)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
}

func TestLoad_CredentialsFromEnvironment(t *testing.T) {
	t.Setenv("LARK_APP_ID", "cli_test")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("LARK_RECEIVE_ID", "oc_chat")

	path := writeConfig(t, `
notify:
  enabled: true
worker:
  overdue_interval: 15m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Notify.Enabled)
	assert.Equal(t, "cli_test", cfg.Lark.AppID)
	assert.Equal(t, "secret", cfg.Lark.AppSecret)
	assert.Equal(t, "oc_chat", cfg.Lark.ReceiveID)
	assert.Equal(t, 15*time.Minute, cfg.Worker.OverdueInterval)
}

func TestLoad_NotifyRequiresCredentials(t *testing.T) {
	path := writeConfig(t, `
notify:
  enabled: true
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lark.app_id")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "data/engagements.db"},
			Logger:   LoggerConfig{Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "logger.format"},
		{"notify without receiver", func(c *Config) {
			c.Notify.Enabled = true
			c.Lark.AppID = "id"
			c.Lark.AppSecret = "secret"
		}, "lark.receive_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8081},
		Database:  DatabaseConfig{Path: "x.db", MigrationsDir: "migrations"},
		Lark:      LarkConfig{AppID: "id", ReceiveID: "oc_chat", ReceiveIDType: "chat_id"},
		Notify:    NotifyConfig{Enabled: true},
		Templates: TemplatesConfig{CatalogPath: "t.yaml", Overwrite: true},
		Export:    ExportConfig{ArchiveDir: "archive"},
		Worker:    WorkerConfig{OverdueInterval: time.Minute, BatchSize: 10},
	}

	cc := cfg.ToContainerConfig()

	assert.Equal(t, "x.db", cc.Database.Path)
	assert.Equal(t, "migrations", cc.Database.MigrationsDir)
	assert.Equal(t, "oc_chat", cc.Lark.ReceiveID)
	assert.True(t, cc.Notify.Enabled)
	assert.True(t, cc.Templates.Overwrite)
	assert.Equal(t, "archive", cc.Storage.ArchiveDir)
	assert.Equal(t, 8081, cc.Server.Port)
	assert.Equal(t, time.Minute, cc.Worker.OverdueInterval)
	assert.Equal(t, 10, cc.Worker.OverdueBatchSize)
}
