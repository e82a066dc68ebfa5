// Command fireevent-admin is a CLI wrapping internal/bus's Admin surface —
// the same operator actions original_source/utils/kafka_utils.py exposes as
// library functions (create/delete topic, reset a consumer group to
// earliest, report consumer-group lag).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	brokers := strings.Split(envOr("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"), ",")
	admin, err := bus.NewKafkaAdmin(brokers)
	if err != nil {
		fatalf("admin init: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "create-topic":
		fs := flag.NewFlagSet("create-topic", flag.ExitOnError)
		partitions := fs.Int("partitions", 3, "number of partitions")
		replication := fs.Int("replication-factor", 1, "replication factor")
		fs.Parse(os.Args[2:])
		topic := requireArg(fs, "create-topic <topic>")
		if err := admin.CreateTopicIfNotExists(ctx, topic, *partitions, *replication); err != nil {
			fatalf("create-topic: %v", err)
		}
		fmt.Printf("topic %q ready\n", topic)

	case "delete-topic":
		fs := flag.NewFlagSet("delete-topic", flag.ExitOnError)
		fs.Parse(os.Args[2:])
		topic := requireArg(fs, "delete-topic <topic>")
		if err := admin.DeleteTopic(ctx, topic); err != nil {
			fatalf("delete-topic: %v", err)
		}
		fmt.Printf("topic %q deleted\n", topic)

	case "list-topics":
		topics, err := admin.ListTopics(ctx)
		if err != nil {
			fatalf("list-topics: %v", err)
		}
		for _, t := range topics {
			fmt.Println(t)
		}

	case "reset-group":
		fs := flag.NewFlagSet("reset-group", flag.ExitOnError)
		group := fs.String("group", "", "consumer group id")
		topic := fs.String("topic", "", "topic")
		fs.Parse(os.Args[2:])
		if *group == "" || *topic == "" {
			fatalf("reset-group requires -group and -topic")
		}
		if err := admin.ResetConsumerGroupToEarliest(ctx, *group, *topic); err != nil {
			fatalf("reset-group: %v", err)
		}
		fmt.Printf("consumer group %q reset to earliest on %q\n", *group, *topic)

	case "lag":
		fs := flag.NewFlagSet("lag", flag.ExitOnError)
		group := fs.String("group", "", "consumer group id")
		topic := fs.String("topic", "", "topic")
		fs.Parse(os.Args[2:])
		if *group == "" || *topic == "" {
			fatalf("lag requires -group and -topic")
		}
		lag, err := admin.ConsumerGroupLag(ctx, *group, *topic)
		if err != nil {
			fatalf("lag: %v", err)
		}
		var total int64
		for partition, l := range lag {
			fmt.Printf("partition=%d lag=%d\n", partition, l)
			total += l
		}
		fmt.Printf("total lag=%d\n", total)

	default:
		usage()
		os.Exit(1)
	}
}

func requireArg(fs *flag.FlagSet, usageLine string) string {
	if fs.NArg() < 1 {
		fatalf("usage: fireevent-admin %s", usageLine)
	}
	return fs.Arg(0)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: fireevent-admin <command> [flags]

commands:
  create-topic <topic> [-partitions N] [-replication-factor N]
  delete-topic <topic>
  list-topics
  reset-group -group <id> -topic <topic>
  lag -group <id> -topic <topic>`)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
