package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clipvault-io/clipvault/internal/config"
	"github.com/clipvault-io/clipvault/internal/middleware"
	"github.com/clipvault-io/clipvault/internal/modules/handler"
	"github.com/clipvault-io/clipvault/internal/modules/serializer"
)

type RouterDeps struct {
	Config          *config.Config
	Log             *zap.Logger
	AssetHandler    *handler.AssetHandler
	ProjectHandler  *handler.ProjectHandler
	IngestHandler   *handler.IngestHandler
	SnapshotHandler *handler.SnapshotHandler
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Add OpenTelemetry middleware if enabled (using configuration system)
	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(middleware.OtelTracing(d.Config.App.Name))
		// Add trace ID to response header
		r.Use(middleware.TraceID())
	}

	r.Use(middleware.ZapLogger(d.Log))

	if len(d.Config.CORS.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.Config.CORS.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	v1 := r.Group("/api/v1")
	{
		v1.Use(middleware.BearerAuth(d.Config))

		// ping endpoint
		v1.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		asset := v1.Group("/asset")
		{
			asset.GET("", d.AssetHandler.ListAssets)
			asset.POST("/batch_delete", d.AssetHandler.BatchDelete)
			asset.POST("/batch_download", d.AssetHandler.DownloadURLs)

			asset.GET("/:id", d.AssetHandler.GetAsset)
			asset.DELETE("/:id", d.AssetHandler.SoftDelete)
			asset.GET("/:id/thumbnail", d.AssetHandler.GetThumbnail)
			asset.POST("/:id/favorite", d.AssetHandler.ToggleFavorite)
			asset.POST("/:id/restore", d.AssetHandler.Restore)
			asset.PUT("/:id/project", d.AssetHandler.AssignProject)
		}

		project := v1.Group("/project")
		{
			project.GET("", d.ProjectHandler.ListProjects)
			project.POST("", d.ProjectHandler.CreateProject)
			project.PUT("/:id", d.ProjectHandler.RenameProject)
			project.DELETE("/:id", d.ProjectHandler.DeleteProject)
		}

		ingest := v1.Group("/ingest")
		{
			ingest.POST("", d.IngestHandler.Ingest)
			ingest.GET("/:job_id/progress", d.IngestHandler.Progress)
		}

		library := v1.Group("/library")
		{
			library.GET("/export", d.SnapshotHandler.Export)
			library.POST("/import", d.SnapshotHandler.Import)
		}

		v1.GET("/storage/usage", d.AssetHandler.StorageUsage)
	}
	return r
}
