// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/mirelio/gameforge/internal/assetdb"
	"github.com/mirelio/gameforge/internal/config"
	"github.com/mirelio/gameforge/internal/di"
	"github.com/mirelio/gameforge/internal/generation"
	"github.com/mirelio/gameforge/internal/progress"
	"github.com/mirelio/gameforge/internal/storage"
)

// SetupRouter configures the HTTP routes. Services are resolved from the
// container only; nothing is created here.
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	container := di.GetContainer()

	generator, ok := container.Get("generation").(*generation.Client)
	if !ok {
		return nil, fmt.Errorf("generation client not initialized")
	}

	objects, ok := container.Get("objectstore").(*storage.ObjectStore)
	if !ok {
		return nil, fmt.Errorf("object store not initialized")
	}

	assets, ok := container.Get("assetdb").(*assetdb.Store)
	if !ok {
		return nil, fmt.Errorf("asset store not initialized")
	}

	progressSvc, ok := container.Get("progress").(*progress.Service)
	if !ok {
		return nil, fmt.Errorf("progress service not initialized")
	}

	hub, ok := container.Get("statushub").(*StatusHub)
	if !ok {
		return nil, fmt.Errorf("status hub not initialized")
	}

	handler := NewHandler(generator, objects, assets, progressSvc, hub)

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(corsMiddleware())

	r.Static("/static", cfg.StaticDir)

	RegisterRoutes(r, handler, hub)

	return r, nil
}

// RegisterRoutes mounts the API on the engine.
func RegisterRoutes(r *gin.Engine, handler *Handler, hub *StatusHub) {
	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/projects", handler.ListProjects)

		api.POST("/session", handler.CreateSession)
		api.POST("/session/reset", handler.ResetSession)
		api.POST("/session/upload", handler.UploadVideo)
		api.POST("/session/process", handler.ProcessVideo)

		api.GET("/events", handler.ListEvents)
		api.POST("/events/manual", handler.CreateManualEvent)
		api.POST("/events/:id/select", handler.SelectEvent)
		api.POST("/events/:id/regenerate-all", handler.RegenerateAll)
		api.POST("/events/:id/variations/:index/edit", handler.BeginEdit)
		api.POST("/events/:id/variations/:index/regenerate", handler.RegenerateVariation)
		api.POST("/events/cancel-edit", handler.CancelEdit)

		api.POST("/playback/play", handler.PlaybackPlay)
		api.POST("/playback/pause", handler.PlaybackPause)
		api.POST("/playback/ended", handler.PlaybackEnded)

		api.GET("/export/wwise", handler.ExportWwise)
	}

	r.GET("/ws/status", hub.HandleStatusSocket)
}
