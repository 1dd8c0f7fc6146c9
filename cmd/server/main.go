package main

import (
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"claimcheck/internal/auth"
	"claimcheck/internal/config"
	"claimcheck/internal/workflow"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := config.Load(); err != nil {
		slog.Info("no .env loaded", "error", err)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ServeKey == "" {
		slog.Warn("CLAIMCHECK_API_KEY not set; gated routes will reject all requests")
	}
	if !cfg.SandboxEnabled() {
		slog.Warn("E2B_API_KEY not set; analysis will use the reasoning fallback")
	}

	engine, err := workflow.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	store := workflow.NewStore(cfg.RunsDir, cfg.RunsMax)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := os.MkdirAll(cfg.RunsDir, 0o755); err != nil {
			c.JSON(500, gin.H{"status": "error", "error": "runs dir not writable"})
			return
		}
		if _, err := os.Stat(cfg.DatasetPath); err != nil {
			c.JSON(500, gin.H{"status": "error", "error": "dataset not readable"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(auth.APIKey(cfg.ServeKey))
	{
		api.POST("/evaluate", workflow.Handler(engine, store))
		api.GET("/runs", workflow.RunsHandler(store))
		api.GET("/runs/:id", workflow.RunHandler(store))
	}

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		if strings.HasPrefix(port, ":") {
			addr = port
		} else {
			addr = ":" + port
		}
	}
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
