// Command fireevent-serving runs the validated-to-indexed-KV stage (§4.4).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
	"github.com/calebebrim/fireevents-pipeline/internal/pipelog"
	"github.com/calebebrim/fireevents-pipeline/internal/servingstage"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
)

func main() {
	logger := pipelog.New("fireevent-serving")

	cfg, err := config.LoadServingConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	store := kvstore.NewRedisStore(kvstore.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	admin, err := bus.NewKafkaAdmin(cfg.BusBrokers)
	if err != nil {
		logger.Fatalf("admin init: %v", err)
	}
	consumer, err := bus.NewKafkaConsumer(bus.KafkaConsumerConfig{
		Brokers: cfg.BusBrokers,
		GroupID: cfg.ConsumerGroup,
		Topic:   cfg.ValidatedTopic,
	})
	if err != nil {
		logger.Fatalf("consumer init: %v", err)
	}
	defer consumer.Close()

	proc := servingstage.New(cfg, consumer, admin, store, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Restart {
		if err := proc.EnsureIndex(ctx); err != nil {
			logger.Fatalf("ensure index: %v", err)
		}
	}

	go waitForShutdown(cancel)

	runtime := stage.New(cfg.RuntimeConfig, logger)
	if err := runtime.Run(ctx, proc); err != nil && err != context.Canceled {
		logger.Fatalf("run: %v", err)
	}
}

func waitForShutdown(cancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down fireevent-serving...")
	cancel()
}
