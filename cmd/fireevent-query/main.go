// Command fireevent-query serves the read-only analytical query API
// (§9 "Analytical read path") over the serving stage's KV store, following
// the teacher's httpserver main.go shape (eval-engine/cmd/eval-ingestion-service).
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
	"github.com/calebebrim/fireevents-pipeline/internal/servingquery"
)

func main() {
	addr := envOr("FIRE_EVENT_QUERY_ADDR", ":8070")
	keyPrefix := envOr("REDIS_EVENT_KEY_PREFIX", "fireevent")
	indexID := envOr("REDIS_EVENT_INDEX_ID", "fireevent") + "_idx"

	store := kvstore.NewRedisStore(kvstore.RedisConfig{
		Host:     envOr("REDIS_HOST", "redis"),
		Port:     envIntOr("REDIS_PORT", 6379),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envIntOr("REDIS_DB", 0),
	})

	server := servingquery.New(store, keyPrefix, indexID)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("fireevent-query listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	waitForShutdown(httpServer)
}

func waitForShutdown(srv *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("fireevent-query graceful shutdown failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
