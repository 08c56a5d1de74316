package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"brandreel-server/modules/common/config"
	"brandreel-server/modules/common/database"
	"brandreel-server/modules/common/gemini"
	"brandreel-server/modules/common/logger"
	"brandreel-server/modules/common/redis"
	"brandreel-server/modules/common/storage"
	"brandreel-server/modules/common/utils"
	"brandreel-server/modules/extract"
	"brandreel-server/modules/pages"
	"brandreel-server/modules/prompt"
	"brandreel-server/modules/realtime"
	"brandreel-server/modules/video"
)

const (
	cleanupInterval = 5 * time.Minute
	topicIdleTime   = 30 * time.Minute
)

// CORS 미들웨어
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "brandreel",
	})
}

func main() {
	log, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(log)
	defer log.Sync()

	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 공용 클라이언트
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	media := storage.NewClient(httpClient)
	hub := realtime.NewHub()
	hub.StartCleanupRoutine(cleanupInterval, topicIdleTime, ctx.Done())

	deps := video.Deps{
		Generator: video.NewFalClient(cfg, nil),
		Prober:    media,
		Publisher: hub,
	}
	if store := redis.NewStore(redis.Connect(cfg)); store != nil {
		defer store.Close()
		deps.Queue = store
	}
	if db := database.NewClient(cfg); db != nil {
		deps.Store = db
	}

	videoService := video.NewService(cfg, deps)
	promptService := prompt.NewService(gemini.New(cfg.GeminiAPIKeys, cfg.GeminiModel))
	extractService := extract.NewService(cfg, httpClient, media)

	// Redis Queue Worker 시작 (백그라운드)
	if worker := video.NewWorker(videoService, cfg.WorkerConcurrency); worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zap.L().Error("[Worker] stopped", zap.Error(err))
			}
		}()
	} else {
		zap.L().Warn("[Worker] Redis unavailable, async video jobs disabled")
	}

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)
	r.Use(logger.Middleware)

	r.HandleFunc("/health", healthCheck).Methods("GET")
	prompt.NewHandler(promptService).RegisterRoutes(r)
	extract.NewHandler(extractService).RegisterRoutes(r)
	video.NewHandler(videoService).RegisterRoutes(r)
	hub.RegisterRoutes(r)
	pages.NewHandler(cfg, media).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// /generate_video blocks until fal.ai returns
		WriteTimeout: cfg.VideoTimeout + time.Minute,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("graceful shutdown failed", zap.Error(err))
		}
	}()

	zap.L().Info("BrandReel server starting",
		zap.String("port", cfg.Port),
		zap.String("websocket", "ws://localhost:"+cfg.Port+"/ws?job={job_id}"),
		zap.String("health", "http://localhost:"+cfg.Port+"/health"),
		zap.Bool("queue", videoService.QueueEnabled()),
	)

	// 서버 시작
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Fatal("server failed to start", zap.Error(err))
	}
}
