// Command fireevent-validator runs the raw-to-validated|rejected stage (§4.3).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/pipelog"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
	"github.com/calebebrim/fireevents-pipeline/internal/validatorstage"
)

func main() {
	logger := pipelog.New("fireevent-validator")

	cfg, err := config.LoadValidatorConfig()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	admin, err := bus.NewKafkaAdmin(cfg.BusBrokers)
	if err != nil {
		logger.Fatalf("admin init: %v", err)
	}
	consumer, err := bus.NewKafkaConsumer(bus.KafkaConsumerConfig{
		Brokers: cfg.BusBrokers,
		GroupID: cfg.ConsumerGroup,
		Topic:   cfg.SourceTopic,
	})
	if err != nil {
		logger.Fatalf("consumer init: %v", err)
	}
	defer consumer.Close()

	validOut, err := bus.NewKafkaProducer(bus.KafkaProducerConfig{
		Brokers: cfg.BusBrokers,
		Topic:   cfg.ValidatedTopic,
	})
	if err != nil {
		logger.Fatalf("validated producer init: %v", err)
	}
	defer validOut.Close()

	rejOut, err := bus.NewKafkaProducer(bus.KafkaProducerConfig{
		Brokers: cfg.BusBrokers,
		Topic:   cfg.RejectedTopic,
	})
	if err != nil {
		logger.Fatalf("rejected producer init: %v", err)
	}
	defer rejOut.Close()

	proc := validatorstage.New(cfg, consumer, validOut, rejOut, admin, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !cfg.Restart {
		if err := proc.EnsureTopics(ctx, 3, 1); err != nil {
			logger.Fatalf("ensure topics: %v", err)
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
	log.Println("shutting down fireevent-validator...")
	cancel()
}
