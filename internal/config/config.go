// Package config loads stage configuration from the environment, following
// the typed-struct-plus-helpers convention used across this codebase's
// services rather than a generic flag/viper layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// OnFailure governs how a stage reacts to a per-record processing error.
type OnFailure string

const (
	OnFailureContinue OnFailure = "continue"
	OnFailureRaise    OnFailure = "raise"
)

func (f OnFailure) Validate() error {
	switch f {
	case OnFailureContinue, OnFailureRaise:
		return nil
	default:
		return fmt.Errorf("config: unknown ON_FAILURE value %q", string(f))
	}
}

// OnDuplicate governs how the serving stage reacts to a re-delivered incident.
type OnDuplicate string

const (
	OnDuplicateContinue OnDuplicate = "continue"
	OnDuplicateFail     OnDuplicate = "fail"
	OnDuplicateReplace  OnDuplicate = "replace"
	OnDuplicateVersion  OnDuplicate = "version"
)

func (d OnDuplicate) Validate() error {
	switch d {
	case OnDuplicateContinue, OnDuplicateFail, OnDuplicateReplace, OnDuplicateVersion:
		return nil
	default:
		return fmt.Errorf("config: unknown ON_DUPLICATE value %q", string(d))
	}
}

// RuntimeConfig holds the stage-runtime parameters common to every stage (§4.1/§6).
type RuntimeConfig struct {
	BatchSize         int
	MainLoop          bool
	MainLoopInterval  time.Duration
	MainLoopTimeout   time.Duration
	OnFailure         OnFailure
	Restart           bool
	DateFormat        string
	DateTimeFormats   []string
	BusBrokers        []string
}

func loadRuntime() (RuntimeConfig, error) {
	onFailure := OnFailure(strings.ToLower(getEnv("ON_FAILURE", "continue")))
	if err := onFailure.Validate(); err != nil {
		return RuntimeConfig{}, err
	}
	cfg := RuntimeConfig{
		BatchSize:        getInt("BATCH_SIZE", 100),
		MainLoop:         getBool("MAIN_LOOP", true),
		MainLoopInterval: time.Duration(getInt("MAIN_LOOP_INTERVAL", 30)) * time.Second,
		MainLoopTimeout:  time.Duration(getInt("MAIN_LOOP_TIMEOUT", 60)) * time.Second,
		OnFailure:        onFailure,
		Restart:          getBool("RESTART", false),
		DateFormat:       getEnv("DATE_FORMAT", "2006/01/02"),
		DateTimeFormats:  splitNonEmpty(getEnv("DATETIME_FORMAT", "2006/01/02 15:04:05"), "|"),
		BusBrokers:       splitNonEmpty(getEnv("KAFKA_BOOTSTRAP_SERVERS", "localhost:9092"), ","),
	}
	return cfg, nil
}

// SourceConfig is read by cmd/fireevent-source.
type SourceConfig struct {
	RuntimeConfig
	StartDate     time.Time
	CSVFolderPath string
	SourceTopic   string
	ServiceName   string
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

func LoadSourceConfig() (SourceConfig, error) {
	rt, err := loadRuntime()
	if err != nil {
		return SourceConfig{}, err
	}
	startDateStr := getEnv("START_DATE", "2021/01/01")
	startDate, err := time.Parse(rt.DateFormat, startDateStr)
	if err != nil {
		return SourceConfig{}, fmt.Errorf("config: parse START_DATE %q with %q: %w", startDateStr, rt.DateFormat, err)
	}
	return SourceConfig{
		RuntimeConfig: rt,
		StartDate:     startDate,
		CSVFolderPath: getEnv("CSV_FOLDER_PATH", "/data/fire_events"),
		SourceTopic:   getEnv("FIRE_EVENT_SOURCE_TOPIC", "fire_event_source"),
		ServiceName:   getEnv("SERVICE_NAME", "fire_event_source"),
		RedisHost:     getEnv("REDIS_HOST", "redis"),
		RedisPort:     getInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),
	}, nil
}

// ValidatorConfig is read by cmd/fireevent-validator.
type ValidatorConfig struct {
	RuntimeConfig
	SourceTopic               string
	ValidatedTopic            string
	RejectedTopic             string
	ServiceName               string
	ConsumerGroup             string
	AdditionalAllowedEmptyFields map[string]bool
}

func LoadValidatorConfig() (ValidatorConfig, error) {
	rt, err := loadRuntime()
	if err != nil {
		return ValidatorConfig{}, err
	}
	serviceName := getEnv("SERVICE_NAME", "fire_event_data_quality_service")
	allowed := map[string]bool{}
	for _, f := range splitNonEmpty(getEnv("ADITIONAL_ALLOWED_EMPTY_FIELDS", ""), ",") {
		allowed[f] = true
	}
	return ValidatorConfig{
		RuntimeConfig:  rt,
		SourceTopic:    getEnv("FIRE_EVENT_SOURCE_TOPIC", "fire_event_source"),
		ValidatedTopic: getEnv("VALIDATED_EVENTS_TOPIC", "validated-fire-events"),
		RejectedTopic:  getEnv("UNVALIDATED_EVENTS_TOPIC", "validation-failed-fire-events"),
		ServiceName:    serviceName,
		ConsumerGroup:  getEnv("EVENTS_SOURCE_TOPIC_CG", serviceName),
		AdditionalAllowedEmptyFields: allowed,
	}, nil
}

// ServingConfig is read by cmd/fireevent-serving.
type ServingConfig struct {
	RuntimeConfig
	ValidatedTopic string
	ServiceName    string
	ConsumerGroup  string
	OnDuplicate    OnDuplicate
	RedisHost      string
	RedisPort      int
	RedisPassword  string
	RedisDB        int
	KeyPrefix      string
	IndexID        string
}

func LoadServingConfig() (ServingConfig, error) {
	rt, err := loadRuntime()
	if err != nil {
		return ServingConfig{}, err
	}
	onDuplicate := OnDuplicate(strings.ToLower(getEnv("ON_DUPLICATE", "continue")))
	if err := onDuplicate.Validate(); err != nil {
		return ServingConfig{}, err
	}
	serviceName := getEnv("SERVICE_NAME", "fire_event_data_serving")
	indexID := getEnv("REDIS_EVENT_INDEX_ID", "fireevent") + "_idx"
	return ServingConfig{
		RuntimeConfig:  rt,
		ValidatedTopic: getEnv("VALIDATED_EVENTS_TOPIC", "validated-fire-events"),
		ServiceName:    serviceName,
		ConsumerGroup:  getEnv("VALIDATED_EVENTS_TOPIC_CG", serviceName),
		OnDuplicate:    onDuplicate,
		RedisHost:      getEnv("REDIS_HOST", "redis"),
		RedisPort:      getInt("REDIS_PORT", 6379),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),
		KeyPrefix:      getEnv("REDIS_EVENT_KEY_PREFIX", "fireevent"),
		IndexID:        indexID,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
