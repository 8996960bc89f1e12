package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/kyotosound/soundrooms-backend/internal/handlers"
  "github.com/kyotosound/soundrooms-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler           *handlers.AuthHandler
  AuthMiddleware        *middleware.AuthMiddleware
  UserHandler           *handlers.UserHandler
  CatalogHandler        *handlers.CatalogHandler
  RoomHandler           *handlers.RoomHandler
  PlaybackHandler       *handlers.PlaybackHandler
  RecommendationHandler *handlers.RecommendationHandler
  ChatHandler           *handlers.ChatHandler
  EmbeddingHandler      *handlers.EmbeddingHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  // ===============
  // || Public    ||
  // ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/register", cfg.AuthHandler.Register)
  router.POST("/login", cfg.AuthHandler.Login)
  router.POST("/refresh", cfg.AuthHandler.Refresh)

  // ===============
  // || Protected ||
  // ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  protected.PATCH("/user", cfg.UserHandler.UpdateMe)
  protected.GET("/users", cfg.UserHandler.List)
  protected.GET("/users/:id", cfg.UserHandler.GetByID)
  // Catalog
  protected.POST("/artists", cfg.CatalogHandler.CreateArtist)
  protected.GET("/artists", cfg.CatalogHandler.ListArtists)
  protected.GET("/artists/:id", cfg.CatalogHandler.GetArtist)
  protected.POST("/tracks", cfg.CatalogHandler.CreateTrack)
  protected.GET("/tracks", cfg.CatalogHandler.ListTracks)
  protected.GET("/tracks/:id", cfg.CatalogHandler.GetTrack)
  // Rooms
  protected.POST("/rooms", cfg.RoomHandler.Create)
  protected.GET("/rooms", cfg.RoomHandler.List)
  protected.GET("/rooms/:id", cfg.RoomHandler.Get)
  protected.PATCH("/rooms/:id", cfg.RoomHandler.Update)
  protected.POST("/rooms/:id/join", cfg.RoomHandler.Join)
  protected.POST("/rooms/:id/leave", cfg.RoomHandler.Leave)
  // Queue
  protected.GET("/rooms/:id/queue", cfg.RoomHandler.ListQueue)
  protected.POST("/rooms/:id/queue", cfg.RoomHandler.Enqueue)
  protected.POST("/rooms/:id/queue/pop", cfg.RoomHandler.PopNext)
  protected.DELETE("/rooms/:id/queue/:entryId", cfg.RoomHandler.Dequeue)
  // Playback
  protected.GET("/rooms/:id/playback", cfg.PlaybackHandler.GetState)
  protected.PUT("/rooms/:id/playback", cfg.PlaybackHandler.SetState)
  protected.POST("/rooms/:id/playback/resume", cfg.PlaybackHandler.Resume)
  protected.POST("/rooms/:id/playback/pause", cfg.PlaybackHandler.Pause)
  protected.POST("/rooms/:id/playback/listeners", cfg.PlaybackHandler.RecomputeListeners)
  // Recommendations
  protected.GET("/rooms/:id/recommendations", cfg.RecommendationHandler.Rank)
  protected.POST("/rooms/:id/recommendations/accept", cfg.RecommendationHandler.Accept)
  // Chat
  protected.GET("/rooms/:id/messages", cfg.ChatHandler.ListMessages)
  protected.POST("/rooms/:id/messages", cfg.ChatHandler.PostMessage)
  protected.POST("/messages/:messageId/reactions", cfg.ChatHandler.AddReaction)
  protected.DELETE("/reactions/:reactionId", cfg.ChatHandler.RemoveReaction)
  // Embeddings
  protected.PUT("/embeddings", cfg.EmbeddingHandler.Upsert)
  protected.GET("/embeddings/:entityType/:entityId", cfg.EmbeddingHandler.Get)

  return router
}
