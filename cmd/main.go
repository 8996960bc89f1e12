package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/kyotosound/soundrooms-backend/internal/db"
  "github.com/kyotosound/soundrooms-backend/internal/handlers"
  "github.com/kyotosound/soundrooms-backend/internal/logger"
  "github.com/kyotosound/soundrooms-backend/internal/middleware"
  "github.com/kyotosound/soundrooms-backend/internal/realtime"
  "github.com/kyotosound/soundrooms-backend/internal/repos"
  "github.com/kyotosound/soundrooms-backend/internal/server"
  "github.com/kyotosound/soundrooms-backend/internal/services"
  "github.com/kyotosound/soundrooms-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  scoringConfigPath := utils.GetEnv("SCORING_CONFIG_PATH", "", log)

  // Database
  databaseService, err := db.NewDatabaseService(log)
  if err != nil {
    log.Error("Database init failed", "error", err)
    os.Exit(1)
  }
  if err = databaseService.AutoMigrateAll(); err != nil {
    log.Warn("Auto migration failed", "error", err)
  }
  theDB := databaseService.DB()

  // Scoring config
  scoringConfig, err := services.LoadScoringConfig(scoringConfigPath)
  if err != nil {
    log.Error("Failed to load scoring config", "error", err)
    os.Exit(1)
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(theDB, log)
  userTokenRepo := repos.NewUserTokenRepo(theDB, log)
  artistRepo := repos.NewArtistRepo(theDB, log)
  trackRepo := repos.NewTrackRepo(theDB, log)
  roomRepo := repos.NewRoomRepo(theDB, log)
  playbackStateRepo := repos.NewPlaybackStateRepo(theDB, log)
  historyRepo := repos.NewRoomTrackHistoryRepo(theDB, log)
  membershipRepo := repos.NewRoomMembershipRepo(theDB, log)
  queueRepo := repos.NewQueueEntryRepo(theDB, log)
  chatRepo := repos.NewChatMessageRepo(theDB, log)
  reactionRepo := repos.NewReactionRepo(theDB, log)
  eventRepo := repos.NewRecommendationEventRepo(theDB, log)
  embeddingRepo := repos.NewEmbeddingRepo(theDB, log)

  // Event bus
  log.Info("Setting up room event bus...")
  var bus realtime.Bus
  if b, err := realtime.NewRedisBus(log); err != nil {
    log.Warn("Room event bus disabled", "error", err)
  } else {
    bus = b
    defer bus.Close()
    if err := bus.StartForwarder(context.Background(), func(e realtime.RoomEvent) {
      log.Debug("Room event", "room_id", e.RoomID, "kind", e.Kind)
    }); err != nil {
      log.Warn("Room event forwarder failed to start", "error", err)
    }
  }

  // Services
  log.Info("Setting up Services from main...")
  avatarService, err := services.NewAvatarService(log)
  if err != nil {
    log.Warn("Avatar generation disabled", "error", err)
    avatarService = nil
  }
  authService := services.NewAuthService(theDB, log, userRepo, userTokenRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(theDB, log, userRepo)
  catalogService := services.NewCatalogService(theDB, log, artistRepo, trackRepo)
  playbackService := services.NewPlaybackService(theDB, log, roomRepo, trackRepo, playbackStateRepo, historyRepo, membershipRepo, bus)
  roomService := services.NewRoomService(theDB, log, roomRepo, artistRepo, trackRepo, userRepo, membershipRepo, queueRepo, playbackService, bus)
  chatService := services.NewChatService(theDB, log, roomRepo, userRepo, chatRepo, reactionRepo, bus)
  embeddingService := services.NewEmbeddingService(theDB, log, embeddingRepo)
  recommendationService := services.NewRecommendationService(theDB, log, scoringConfig, roomRepo, trackRepo, playbackStateRepo, historyRepo, chatRepo, reactionRepo, queueRepo, embeddingRepo, eventRepo, bus)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  catalogHandler := handlers.NewCatalogHandler(catalogService)
  roomHandler := handlers.NewRoomHandler(roomService)
  playbackHandler := handlers.NewPlaybackHandler(playbackService)
  recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
  chatHandler := handlers.NewChatHandler(chatService)
  embeddingHandler := handlers.NewEmbeddingHandler(embeddingService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:           authHandler,
    AuthMiddleware:        authMiddleware,
    UserHandler:           userHandler,
    CatalogHandler:        catalogHandler,
    RoomHandler:           roomHandler,
    PlaybackHandler:       playbackHandler,
    RecommendationHandler: recommendationHandler,
    ChatHandler:           chatHandler,
    EmbeddingHandler:      embeddingHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
