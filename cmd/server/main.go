package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raisemyhand/backend/config"
	"github.com/raisemyhand/backend/internal/auth"
	"github.com/raisemyhand/backend/internal/middleware"
	"github.com/raisemyhand/backend/internal/models"
	"github.com/raisemyhand/backend/internal/moderation"
	"github.com/raisemyhand/backend/internal/questions"
	"github.com/raisemyhand/backend/internal/realtime"
	"github.com/raisemyhand/backend/internal/reports"
	"github.com/raisemyhand/backend/internal/sessions"
	"github.com/raisemyhand/backend/pkg/database"
	"github.com/raisemyhand/backend/pkg/queue"
	redisclient "github.com/raisemyhand/backend/pkg/redis"
	"github.com/raisemyhand/backend/pkg/response"
)

func main() {
	logCfg := zap.NewProductionConfig()
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logCfg.EncoderConfig.TimeKey = "timestamp"
	logger, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, pubsub, pubsub)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	classifier := moderation.NewWordList(cfg.Moderation.ExtraWords...)
	jobs := queue.NewQueue(rdb.Client, logger)

	sessionStore := sessions.NewRepository(pool)
	questionStore := questions.NewRepository(pool)

	questionService := questions.NewService(
		questionStore, sessionStore, classifier, classifier.Censor,
		hub, jobs, logger, cfg.Moderation.CreateAttempts,
	)

	sessionHandler := sessions.NewHandler(sessionStore, jwtService, hub, logger)
	questionHandler := questions.NewHandler(questionService, logger)
	reportHandler := reports.NewHandler(reports.NewRepository(pool), logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})

	// Public: create a session (become its moderator) or join by code.
	router.POST("/sessions", sessionHandler.Create)
	router.POST("/sessions/join/:code", sessionHandler.Join)

	// Token is passed via query string on the socket.
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtService))

	api := router.Group("/", middleware.JWT(jwtService))
	{
		api.GET("/sessions/:id", sessionHandler.Get)
		api.GET("/sessions/:id/questions", questionHandler.List)
		api.POST("/sessions/:id/questions", questionHandler.Create)
		api.POST("/questions/:id/vote", questionHandler.Vote)

		mod := api.Group("/", middleware.RequireRole(models.RoleModerator))
		{
			mod.POST("/sessions/:id/voting/toggle", sessionHandler.ToggleVoting)
			mod.POST("/sessions/:id/end", sessionHandler.End)
			mod.POST("/sessions/:id/restart", sessionHandler.Restart)
			mod.GET("/sessions/:id/report", reportHandler.Get)

			mod.POST("/questions/:id/approve", questionHandler.Approve)
			mod.POST("/questions/:id/reject", questionHandler.Reject)
			mod.POST("/questions/:id/unflag", questionHandler.Unflag)
			mod.DELETE("/questions/:id", questionHandler.Delete)
			mod.POST("/questions/:id/answered", questionHandler.ToggleAnswered)
			mod.PUT("/questions/:id/answer", questionHandler.PublishAnswer)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
