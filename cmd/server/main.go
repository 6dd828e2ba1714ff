package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiyun-ho/report-card-sub001/internal/achievement"
	"github.com/shiyun-ho/report-card-sub001/internal/authz"
	"github.com/shiyun-ho/report-card-sub001/internal/config"
	"github.com/shiyun-ho/report-card-sub001/internal/db"
	"github.com/shiyun-ho/report-card-sub001/internal/grades"
	internalhttp "github.com/shiyun-ho/report-card-sub001/internal/http"
	"github.com/shiyun-ho/report-card-sub001/internal/report"
	"github.com/shiyun-ho/report-card-sub001/internal/repository"
	"github.com/shiyun-ho/report-card-sub001/internal/session"
	"github.com/shiyun-ho/report-card-sub001/internal/suggest"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("redis ping failed: %v", err)
	}
	cancel()
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Printf("redis close error: %v", err)
		}
	}()

	store := repository.NewStore(pool)

	catalog, err := store.ListCatalog(ctx)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}
	if len(catalog) == 0 {
		log.Printf("achievement catalog empty, using built-in defaults")
		catalog = achievement.DefaultCatalog()
	}

	resolver := authz.NewResolver(store)
	view := grades.NewView(resolver, store)
	matcher := achievement.NewMatcher(catalog)
	suggester := suggest.NewService(resolver, view, matcher)
	reports := report.NewService(resolver, view, store)
	sessions := session.NewStore(redisClient, cfg.SessionTTL)

	server := internalhttp.NewServer(cfg, store, store, sessions, resolver, view, suggester, reports)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("report-card listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
