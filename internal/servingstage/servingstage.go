// Package servingstage implements the validated-to-indexed-KV stage (§4.4):
// it materialises each validated Fire Event as a versioned hash under a
// deterministic key and maintains a RediSearch-style secondary index over
// the served events.
package servingstage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
)

// Index field names are the hash serialisation's field names (FireEvent.ToHash
// keys, underscore-separated like the original dataclass attributes), not
// the space-separated CSV column names §4.3 parses from.
const (
	hashFieldIncidentNumber       = "Incident_Number"
	hashFieldNeighborhoodDistrict = "neighborhood_district"
	hashFieldBattalion            = "Battalion"
	hashFieldID                   = "ID"
	hashFieldAlarmDtTm            = "Alarm_DtTm"
	hashFieldIncidentDate         = "Incident_Date"
)

// indexDefinition is the serving index schema (§4.4 Index schema).
func indexDefinition(indexID, keyPrefix string) kvstore.IndexDefinition {
	return kvstore.IndexDefinition{
		ID:       indexID,
		Prefixes: []string{keyPrefix},
		Fields: []kvstore.Field{
			{Name: hashFieldIncidentNumber, Type: kvstore.FieldTag},
			{Name: hashFieldNeighborhoodDistrict, Type: kvstore.FieldTag},
			{Name: hashFieldBattalion, Type: kvstore.FieldTag},
			{Name: hashFieldID, Type: kvstore.FieldNumeric, Sortable: true},
			{Name: hashFieldAlarmDtTm, Type: kvstore.FieldNumeric, Sortable: true},
			{Name: hashFieldIncidentDate, Type: kvstore.FieldNumeric, Sortable: true},
		},
	}
}

// Processor implements stage.Processor for the serving stage.
type Processor struct {
	cfg      config.ServingConfig
	consumer bus.Consumer
	admin    bus.Admin
	store    kvstore.Store
	log      *log.Logger
	formats  []string

	pollTimeout time.Duration
}

// New constructs a serving-stage Processor.
func New(cfg config.ServingConfig, consumer bus.Consumer, admin bus.Admin, store kvstore.Store, logger *log.Logger) *Processor {
	formats := append(append([]string{}, cfg.DateTimeFormats...), cfg.DateFormat)
	return &Processor{
		cfg:         cfg,
		consumer:    consumer,
		admin:       admin,
		store:       store,
		log:         logger,
		formats:     formats,
		pollTimeout: 1 * time.Second,
	}
}

// EnsureIndex creates the search index if absent (§4.4 Index lifecycle,
// "on startup the stage creates the index if absent").
func (p *Processor) EnsureIndex(ctx context.Context) error {
	return p.store.CreateIndexIfNotExists(ctx, indexDefinition(p.cfg.IndexID, p.cfg.KeyPrefix))
}

// Teardown implements stage.Restarter: drops the index (documents untouched
// by the drop itself), deletes every record under the key prefix, then
// recreates the index (§4.4 Index lifecycle, "on restart").
func (p *Processor) Teardown(ctx context.Context) error {
	if err := p.store.DropIndex(ctx, p.cfg.IndexID); err != nil {
		return fmt.Errorf("servingstage: drop index: %w", err)
	}
	if _, err := p.store.DeleteMatching(ctx, p.cfg.KeyPrefix+":*"); err != nil {
		return fmt.Errorf("servingstage: delete records: %w", err)
	}
	if err := p.store.CreateIndexIfNotExists(ctx, indexDefinition(p.cfg.IndexID, p.cfg.KeyPrefix)); err != nil {
		return fmt.Errorf("servingstage: recreate index: %w", err)
	}
	if p.admin != nil {
		if err := p.admin.ResetConsumerGroupToEarliest(ctx, p.cfg.ConsumerGroup, p.cfg.ValidatedTopic); err != nil {
			return fmt.Errorf("servingstage: reset consumer group: %w", err)
		}
	}
	return nil
}

// ProcessOne implements stage.Processor.
func (p *Processor) ProcessOne(ctx context.Context) (stage.Outcome, string, time.Time, error, bool) {
	msg, err := p.consumer.Poll(ctx, p.pollTimeout)
	if err != nil {
		return stage.OutcomeFailure, "", time.Time{}, fmt.Errorf("servingstage: poll: %w", err), true
	}
	if msg == nil {
		return stage.OutcomeIdle, "", time.Time{}, nil, false
	}

	key := string(msg.Key)

	var row fireevent.RawRow
	if err := json.Unmarshal(msg.Value, &row); err != nil {
		_ = p.consumer.Commit(ctx, *msg)
		return stage.OutcomeFailure, key, time.Time{}, fmt.Errorf("servingstage: decode: %w", err), false
	}

	event, err := fireevent.Parse(row, p.formats)
	if err != nil {
		_ = p.consumer.Commit(ctx, *msg)
		return stage.OutcomeFailure, key, time.Time{}, fmt.Errorf("servingstage: parse: %w", err), false
	}

	ts := time.Time{}
	if event.IncidentDate != nil {
		ts = *event.IncidentDate
	}

	if err := p.storeEvent(ctx, event); err != nil {
		if err == errDuplicateFail {
			_ = p.consumer.Commit(ctx, *msg)
			return stage.OutcomeFailure, key, ts, fmt.Errorf("servingstage: %s: %w", event.IncidentNumber, err), false
		}
		return stage.OutcomeFailure, key, ts, fmt.Errorf("servingstage: persist: %w", err), true
	}

	if err := p.consumer.Commit(ctx, *msg); err != nil {
		return stage.OutcomeFailure, key, ts, fmt.Errorf("servingstage: commit: %w", err), true
	}
	return stage.OutcomeSuccess, event.IncidentNumber, ts, nil, false
}

// Flush implements stage.Processor: the serving stage writes to Redis
// synchronously, so there is nothing buffered to drain.
func (p *Processor) Flush(ctx context.Context) error {
	return nil
}
