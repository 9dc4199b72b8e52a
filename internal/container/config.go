// Package container provides dependency injection and lifecycle management
// for the engagement tracker following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Lark API configuration
	Lark LarkConfig

	// Notify switches chat notifications on or off
	Notify NotifyConfig

	// Templates configures the document template catalog
	Templates TemplatesConfig

	// Storage configuration
	Storage StorageConfig

	// Server configuration
	Server ServerConfig

	// Worker configuration
	Worker WorkerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	// AppID is the Lark application ID
	AppID string

	// AppSecret is the Lark application secret
	AppSecret string

	// ReceiveIDType is chat_id, open_id or email
	ReceiveIDType string

	// ReceiveID is the chat or user that receives notifications
	ReceiveID string
}

// NotifyConfig holds notification settings.
type NotifyConfig struct {
	// Enabled sends status changes and overdue alerts to Lark
	Enabled bool
}

// TemplatesConfig holds document template settings.
type TemplatesConfig struct {
	// CatalogPath is a YAML file of templates seeded at startup. Empty disables seeding.
	CatalogPath string

	// Overwrite replaces stored templates with the catalog versions
	Overwrite bool
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// ArchiveDir is the base directory for archived documents
	ArchiveDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// OverdueInterval is how often target dates are checked
	OverdueInterval time.Duration

	// OverdueBatchSize caps engagements examined per scan
	OverdueBatchSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/engagements.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Lark: LarkConfig{
			ReceiveIDType: "chat_id",
		},
		Templates: TemplatesConfig{
			CatalogPath: "configs/templates.yaml",
		},
		Storage: StorageConfig{
			ArchiveDir: "data/documents",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Worker: WorkerConfig{
			OverdueInterval:  time.Hour,
			OverdueBatchSize: 100,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Lark credentials only matter when notifications are on
	if c.Notify.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when notify.enabled is set")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when notify.enabled is set")
		}
		if c.Lark.ReceiveID == "" {
			return fmt.Errorf("lark.receive_id is required when notify.enabled is set")
		}
	}

	if c.Worker.OverdueInterval < 0 {
		return fmt.Errorf("worker.overdue_interval must not be negative")
	}

	return nil
}
