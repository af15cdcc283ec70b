package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/quirra-app/quirra-api/config"
	"github.com/quirra-app/quirra-api/database"
	"github.com/quirra-app/quirra-api/handlers"
	auth_handlers "github.com/quirra-app/quirra-api/handlers/auth"
	chat_handlers "github.com/quirra-app/quirra-api/handlers/chat"
	device_handlers "github.com/quirra-app/quirra-api/handlers/devices"
	focus_handlers "github.com/quirra-app/quirra-api/handlers/focus"
	library_handlers "github.com/quirra-app/quirra-api/handlers/library"
	mood_handlers "github.com/quirra-app/quirra-api/handlers/moods"
	security_handlers "github.com/quirra-app/quirra-api/handlers/security"
	session_handlers "github.com/quirra-app/quirra-api/handlers/sessions"
	share_handlers "github.com/quirra-app/quirra-api/handlers/shares"
	summarize_handlers "github.com/quirra-app/quirra-api/handlers/summarize"
	"github.com/quirra-app/quirra-api/services"
	"github.com/quirra-app/quirra-api/services/llm"
	"github.com/quirra-app/quirra-api/utils/auth"
	"github.com/quirra-app/quirra-api/utils/cache"
	"github.com/quirra-app/quirra-api/utils/middleware"
)

// SetupRoutes wires middleware, services and handlers onto the app
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "quirra-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
		redisCache = nil
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// One provider client serves every LLM-backed feature
	llmClient := llm.NewClient(llm.Config{
		APIKey:  env.LLMAPIKey(),
		BaseURL: env.LLM_BASE_URL,
		Model:   env.LLM_MODEL,
		AppURL:  env.SHARE_BASE_URL,
		AppName: "Quirra",
	})

	analysisService := services.NewAnalysisService(llmClient)
	keyResolver := services.NewProviderKeyResolver(db, env.JWT_SECRET)
	memoryService := services.NewMemoryService(db, llmClient, keyResolver)
	chatService := services.NewChatService(db, llmClient, analysisService, memoryService, keyResolver)
	shareService := services.NewShareService(db, redisCache, env.SHARE_BASE_URL)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)
	securityHandler := security_handlers.NewSecurityHandler(db, env.JWT_SECRET)
	deviceHandler := device_handlers.NewDeviceHandler(db)
	sessionHandler := session_handlers.NewSessionHandler(db)
	moodHandler := mood_handlers.NewMoodHandler(db, analysisService)
	focusHandler := focus_handlers.NewFocusHandler(db)
	libraryHandler := library_handlers.NewLibraryHandler(db)
	chatHandler := chat_handlers.NewChatHandler(chatService, analysisService)
	memoryHandler := chat_handlers.NewMemoryHandler(memoryService)
	summarizeHandler := summarize_handlers.NewSummarizeHandler(memoryService)
	shareHandler := share_handlers.NewShareHandler(shareService)

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// Public share resolution sits outside the versioned API so links stay
	// short and stable
	app.Get("/api/shares/:slug", shareHandler.Resolve)

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}
	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)
	authGroup.Post("/logout-all", authMiddleware.Required(), authHandler.LogoutAll)
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Security settings and provider keys (protected)
	securityGroup := api.Group("/security", authMiddleware.Required())
	securityGroup.Get("/settings", securityHandler.GetSettings)
	securityGroup.Put("/settings", securityHandler.UpdateSettings)
	securityGroup.Get("/provider-keys", securityHandler.ListProviderKeys)
	securityGroup.Put("/provider-keys", securityHandler.SetProviderKey)
	securityGroup.Delete("/provider-keys/:provider", securityHandler.DeleteProviderKey)

	// Devices (protected)
	devices := api.Group("/devices", authMiddleware.Required())
	devices.Get("/", deviceHandler.List)
	devices.Post("/", deviceHandler.Register)
	devices.Put("/:id", deviceHandler.Update)
	devices.Delete("/:id", deviceHandler.Delete)

	// Login sessions (protected)
	loginSessions := api.Group("/sessions", authMiddleware.Required())
	loginSessions.Get("/", sessionHandler.List)
	loginSessions.Delete("/:id", sessionHandler.Revoke)

	// Mood log (protected)
	moods := api.Group("/moods", authMiddleware.Required())
	moods.Post("/", moodHandler.Create)
	moods.Get("/", moodHandler.List)
	moods.Delete("/:id", moodHandler.Delete)

	// Daily focus (protected)
	focus := api.Group("/focus", authMiddleware.Required())
	focus.Get("/today", focusHandler.GetToday)
	focus.Put("/today", focusHandler.SetToday)
	focus.Get("/history", focusHandler.History)

	// Library (protected)
	library := api.Group("/library", authMiddleware.Required())
	library.Post("/", libraryHandler.Create)
	library.Get("/", libraryHandler.List)
	library.Get("/:id", libraryHandler.Get)
	library.Put("/:id", libraryHandler.Update)
	library.Delete("/:id", libraryHandler.Delete)

	// Chat (protected)
	chat := api.Group("/chat", authMiddleware.Required())
	chat.Get("/sessions", chatHandler.ListSessions)
	chat.Post("/sessions", chatHandler.CreateSession)
	chat.Get("/sessions/:id", chatHandler.GetSession)
	chat.Put("/sessions/:id", chatHandler.UpdateSession)
	chat.Delete("/sessions/:id", chatHandler.DeleteSession)
	chat.Get("/sessions/:id/messages", chatHandler.ListMessages)
	chat.Post("/sessions/:id/messages", chatHandler.SendMessage)
	chat.Get("/sessions/:id/memories", memoryHandler.ListForSession)
	chat.Put("/messages/:id", chatHandler.EditMessage)
	chat.Get("/messages/:id/edits", chatHandler.ListEdits)

	// Analysis (protected, transient)
	api.Post("/analyze", authMiddleware.Required(), chatHandler.Analyze)

	// Memories (protected)
	memories := api.Group("/memories", authMiddleware.Required())
	memories.Get("/", memoryHandler.List)
	memories.Delete("/:id", memoryHandler.Delete)

	// Summarization (protected)
	api.Post("/summarize", authMiddleware.Required(), summarizeHandler.Summarize)

	// Share management (protected); resolution is the public route above
	shares := api.Group("/shares", authMiddleware.Required())
	shares.Post("/", shareHandler.Create)
	shares.Get("/", shareHandler.List)
	shares.Delete("/:slug", shareHandler.Revoke)
}
