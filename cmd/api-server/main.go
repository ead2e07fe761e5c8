// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialnet/internal/apiserver/auth"
	"socialnet/internal/apiserver/server"
	"socialnet/internal/config"
	"socialnet/internal/shared/cache"
	cacheredis "socialnet/internal/shared/cache/redis"
	"socialnet/internal/shared/eventbus"
	busredis "socialnet/internal/shared/eventbus/redis"
	objstore "socialnet/internal/shared/minio"
	"socialnet/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 configs/{env}.yaml）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// JWT 密钥必须显式配置
	if err := auth.EnsureSecret(auth.Config{JWTSecret: cfg.JWTSecret}); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化 Redis（限流、通知事件总线）；未配置时降级为进程内实现
	var limiter cache.RateLimiter
	var bus eventbus.NotificationBus
	if cfg.RedisURL != "" {
		redisLimiter, err := cacheredis.NewLimiterFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisLimiter.Close()
		limiter = redisLimiter

		redisBus, err := busredis.NewBusFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisBus.Close()
		bus = redisBus
		log.Println("Connected to Redis")
	} else {
		limiter = cache.NewMemoryLimiter()
		bus = eventbus.NewNoOpBus()
		log.Println("Redis not configured, using in-process rate limiter and no-op notifications")
	}

	// 初始化 MinIO（头像/配图）；未配置时图片上传接口返回 503
	var obj *objstore.Client
	if cfg.MinIO.Endpoint != "" {
		obj, err = objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := obj.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		cancel()
		log.Println("Connected to MinIO")
	} else {
		log.Println("MinIO not configured, image uploads disabled")
	}

	h := server.NewHandler(cfg, store, bus, limiter, obj)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
