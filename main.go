package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"reframe/api"
	"reframe/config"
	"reframe/database"
	"reframe/middleware"
	"reframe/repository"
	"reframe/services"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	db, err := database.Init(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("FATAL: [Main] %v", err)
	}

	quotaRepo := repository.NewQuotaRepository(db)
	chatRepo := repository.NewChatRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	quotaService := services.NewQuotaService(quotaRepo, cfg.Quota.Location(), nil)
	modelClient := services.NewOpenAIModelClient(cfg.Model.BaseURL, &http.Client{Timeout: cfg.Model.Timeout()})
	thoughtService := services.NewThoughtService(
		services.ThoughtServiceConfig{
			ModelID:            cfg.Model.ID,
			SystemInstructions: cfg.SystemPrompt,
			Credential:         cfg.Model.APIKey,
			FallbackCredential: cfg.Model.FallbackAPIKey,
		},
		services.ThoughtDeps{
			Sanitizer: services.NewResponseSanitizer(services.NewFallbackGenerator()),
			Client:    modelClient,
			Quotas:    quotaService,
			Chats:     chatRepo,
		},
	)
	log.Println("INFO: [Main] Services initialized.")

	apiHandler := api.NewAPIHandler(thoughtService, quotaService, cfg.Model.ID)

	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("WARN: [Main] Failed to configure trusted proxies: %v", err)
	}
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Cors(cfg.Server.AllowedOrigins))

	api.RegisterRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	serverPort := ":" + cfg.Server.Port
	if cfg.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}
