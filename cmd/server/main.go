package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/api"
	"github.com/skillsphere/skillsphere/internal/auth"
	"github.com/skillsphere/skillsphere/internal/database"
	internalws "github.com/skillsphere/skillsphere/internal/websocket"
)

func main() {
	// Log to both file and console.
	logFile, err := os.OpenFile("server.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	auth.InitJWTKey([]byte(jwtSecret))

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "skillsphere"
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := database.NewMongoStore(connectCtx, mongoURI, dbName)
	cancelConnect()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close(context.Background())
	log.Printf("Connected to MongoDB database %q", dbName)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancelIndex()

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory: %v", err)
	}

	router := gin.Default()

	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := api.NewAuthHandler(store)
	chatHandler := api.NewChatHandler(store)
	userHandler := api.NewUserHandler(store)
	skillHandler := api.NewSkillHandler(store)
	reviewHandler := api.NewReviewHandler(store)
	uploadHandler := api.NewUploadHandler(store, uploadDir)
	notificationHandler := api.NewNotificationHandler(store)

	wsManager := internalws.NewManager()
	go wsManager.Run()

	messageHandler := api.NewMessageHandler(store, wsManager)

	// Uploaded profile pictures are served back by static path.
	router.Static("/uploads", uploadDir)

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.GET("/api/skills/skills", skillHandler.GetSkills)
	router.GET("/api/reviews/:skillID", reviewHandler.GetReviews)

	// Protected routes
	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware())
	{
		authorized.GET("/auth/me", authHandler.GetMe)

		authorized.GET("/chat", chatHandler.GetChats)
		authorized.POST("/chat/create", chatHandler.CreateChat)
		authorized.POST("/chat/direct", chatHandler.GetOrCreateDirectChat)
		authorized.GET("/chat/search/users", chatHandler.SearchUsers)
		authorized.PUT("/chat/:chatID/exchange", chatHandler.UpdateExchangeStatus)
		authorized.POST("/chat/message", messageHandler.SendMessage)
		authorized.GET("/chat/messages/:chatID", messageHandler.GetMessages)

		authorized.POST("/skills/cskills", skillHandler.CreateSkill)
		authorized.POST("/reviews", reviewHandler.AddReview)

		authorized.GET("/users/profile", userHandler.GetProfile)
		authorized.PUT("/users/profile", userHandler.UpdateProfile)
		authorized.PUT("/users/password", userHandler.UpdatePassword)
		authorized.GET("/users/search", userHandler.SearchUsers)
		authorized.POST("/users/profile-picture", uploadHandler.UploadProfilePicture)

		authorized.GET("/notifications", notificationHandler.GetNotifications)
		authorized.PUT("/notifications/:id/read", notificationHandler.MarkRead)
	}

	// WebSocket route: browsers cannot set an Authorization header on
	// the upgrade request, so the token may travel as a query parameter.
	router.GET("/api/ws", func(c *gin.Context) {
		tokenParam := c.Query("token")
		if tokenParam != "" {
			claims, err := auth.ValidateToken(tokenParam)
			if err != nil {
				log.Printf("[WebSocket] Token validation failed for %s: %v", c.Request.RemoteAddr, err)
			} else if userID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
				c.Set("userID", userID)
				c.Set("name", claims.Name)
				wsManager.HandleWebSocket(c)
				return
			}
		}

		// Fall back to the Authorization header.
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := auth.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err == nil {
				if userID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
					c.Set("userID", userID)
					c.Set("name", claims.Name)
					wsManager.HandleWebSocket(c)
					return
				}
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	wsManager.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
