package config

import (
	"github.com/garyjia/engagement-tracker/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Lark: container.LarkConfig{
			AppID:         c.Lark.AppID,
			AppSecret:     c.Lark.AppSecret,
			ReceiveIDType: c.Lark.ReceiveIDType,
			ReceiveID:     c.Lark.ReceiveID,
		},
		Notify: container.NotifyConfig{
			Enabled: c.Notify.Enabled,
		},
		Templates: container.TemplatesConfig{
			CatalogPath: c.Templates.CatalogPath,
			Overwrite:   c.Templates.Overwrite,
		},
		Storage: container.StorageConfig{
			ArchiveDir: c.Export.ArchiveDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Worker: container.WorkerConfig{
			OverdueInterval:  c.Worker.OverdueInterval,
			OverdueBatchSize: c.Worker.BatchSize,
		},
	}
}
