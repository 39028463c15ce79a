package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/Tai-DucTran/Panny/internal/config"
	"github.com/Tai-DucTran/Panny/internal/plantinfo"
	"github.com/Tai-DucTran/Panny/internal/serverapp"
)

func main() {
	configPath := flag.String("config", "panny_config.yml", "path to config file")
	watch := flag.Bool("watch-config", true, "reload care rules when the config file changes")
	flag.Parse()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.ApplyEnv()

	logger := log.Default()

	var infoClient *plantinfo.Client
	if cfg.PlantInfo.BaseURL != "" && cfg.PlantInfo.APIKey != "" {
		infoClient = plantinfo.NewClient(cfg.PlantInfo.BaseURL, cfg.PlantInfo.APIKey,
			plantinfo.WithHTTPClient(&http.Client{Timeout: cfg.PlantInfo.Timeout()}))
	} else {
		logger.Printf("plant info service not configured, care prefill disabled")
	}

	app, err := serverapp.New(serverapp.Options{
		Config:     cfg,
		DataDir:    cfg.Server.DataDir,
		Logger:     logger,
		InfoClient: infoClient,
	})
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	if *watch {
		go func() {
			err := config.Watch(context.Background(), *configPath, logger, func(c *config.Config) {
				app.ApplyConfig(c)
			})
			if err != nil && err != context.Canceled {
				logger.Printf("config watch stopped: %v", err)
			}
		}()
	}

	logger.Printf("listening on http://localhost%s", cfg.Server.Addr)
	log.Fatal(http.ListenAndServe(cfg.Server.Addr, app.Handler()))
}
