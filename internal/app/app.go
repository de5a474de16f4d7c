// internal/app/app.go
package app

import (
	"fmt"

	"github.com/mirelio/gameforge/internal/api"
	"github.com/mirelio/gameforge/internal/assetdb"
	"github.com/mirelio/gameforge/internal/config"
	"github.com/mirelio/gameforge/internal/di"
	"github.com/mirelio/gameforge/internal/generation"
	"github.com/mirelio/gameforge/internal/progress"
	"github.com/mirelio/gameforge/internal/storage"
)

// InitServices constructs all services in dependency order and registers
// them in the container.
func InitServices(cfg *config.Config) error {
	container := di.GetContainer()

	assets, err := assetdb.Open(cfg.AssetDBPath)
	if err != nil {
		return fmt.Errorf("failed to open asset database: %w", err)
	}
	container.Register("assetdb", assets)

	generator := generation.NewClient(cfg.GenerationAPIURL, cfg.GenerationAPIKey)
	container.Register("generation", generator)

	objects := storage.NewObjectStore(cfg.StorageAPIURL, cfg.StorageAPIKey, cfg.StorageBucket)
	container.Register("objectstore", objects)

	container.Register("progress", progress.NewService())
	container.Register("statushub", api.NewStatusHub())

	return nil
}

// Shutdown releases resources held by registered services.
func Shutdown() {
	container := di.GetContainer()

	if assets, ok := container.Get("assetdb").(*assetdb.Store); ok {
		assets.Close()
	}

	container.Clear()
}
