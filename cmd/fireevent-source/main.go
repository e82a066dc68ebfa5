// Command fireevent-source runs the CSV-to-raw-topic stage (§4.2), following
// the teacher's stage-service main.go shape: load config, construct
// dependencies, run the stage loop on a cancellable context, and shut down on
// SIGINT/SIGTERM.
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
	"github.com/calebebrim/fireevents-pipeline/internal/sourcestage"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
)

func main() {
	logger := pipelog.New("fireevent-source")

	cfg, err := config.LoadSourceConfig()
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
	producer, err := bus.NewKafkaProducer(bus.KafkaProducerConfig{
		Brokers: cfg.BusBrokers,
		Topic:   cfg.SourceTopic,
	})
	if err != nil {
		logger.Fatalf("producer init: %v", err)
	}
	defer producer.Close()

	proc := sourcestage.New(cfg, store, producer, admin, logger)
	defer proc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Restart {
		if err := proc.EnsureTopic(ctx, 3, 1); err != nil {
			logger.Fatalf("ensure topic: %v", err)
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
	log.Println("shutting down fireevent-source...")
	cancel()
}
