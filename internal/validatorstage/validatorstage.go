// Package validatorstage implements the raw-to-validated|rejected stage
// (§4.3): it decodes each raw message, projects it onto a Fire Event, runs
// the data-quality rules, and forks the stream onto the validated or
// rejected topic while preserving the incident-number partition key.
package validatorstage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
)

// Processor implements stage.Processor for the validator stage.
type Processor struct {
	cfg      config.ValidatorConfig
	consumer bus.Consumer
	validOut bus.Producer
	rejOut   bus.Producer
	admin    bus.Admin
	log      *log.Logger
	formats  []string

	pollTimeout time.Duration
}

// New constructs a validator-stage Processor.
func New(cfg config.ValidatorConfig, consumer bus.Consumer, validOut, rejOut bus.Producer, admin bus.Admin, logger *log.Logger) *Processor {
	formats := append(append([]string{}, cfg.DateTimeFormats...), cfg.DateFormat)
	return &Processor{
		cfg:         cfg,
		consumer:    consumer,
		validOut:    validOut,
		rejOut:      rejOut,
		admin:       admin,
		log:         logger,
		formats:     formats,
		pollTimeout: 1 * time.Second,
	}
}

// Teardown implements stage.Restarter (§4.1 RESTART mode): the validator
// owns no KV namespace, so restart only deletes its output topics and
// resets its consumer group on the source topic.
func (p *Processor) Teardown(ctx context.Context) error {
	if p.admin == nil {
		return nil
	}
	if err := p.admin.DeleteTopic(ctx, p.cfg.ValidatedTopic); err != nil {
		return fmt.Errorf("validatorstage: delete validated topic: %w", err)
	}
	if err := p.admin.DeleteTopic(ctx, p.cfg.RejectedTopic); err != nil {
		return fmt.Errorf("validatorstage: delete rejected topic: %w", err)
	}
	if err := p.admin.ResetConsumerGroupToEarliest(ctx, p.cfg.ConsumerGroup, p.cfg.SourceTopic); err != nil {
		return fmt.Errorf("validatorstage: reset consumer group: %w", err)
	}
	return nil
}

// EnsureTopics creates the output topics if absent.
func (p *Processor) EnsureTopics(ctx context.Context, partitions, replicationFactor int) error {
	if p.admin == nil {
		return nil
	}
	if err := p.admin.CreateTopicIfNotExists(ctx, p.cfg.ValidatedTopic, partitions, replicationFactor); err != nil {
		return err
	}
	return p.admin.CreateTopicIfNotExists(ctx, p.cfg.RejectedTopic, partitions, replicationFactor)
}

// ProcessOne implements stage.Processor (§4.3 Parsing, Quality rules, Failure lanes).
func (p *Processor) ProcessOne(ctx context.Context) (stage.Outcome, string, time.Time, error, bool) {
	msg, err := p.consumer.Poll(ctx, p.pollTimeout)
	if err != nil {
		return stage.OutcomeFailure, "", time.Time{}, fmt.Errorf("validatorstage: poll: %w", err), true
	}
	if msg == nil {
		return stage.OutcomeIdle, "", time.Time{}, nil, false
	}

	var row fireevent.RawRow
	if err := json.Unmarshal(msg.Value, &row); err != nil {
		_ = p.consumer.Commit(ctx, *msg)
		return stage.OutcomeFailure, string(msg.Key), time.Time{}, fmt.Errorf("validatorstage: decode: %w", err), false
	}

	event, err := fireevent.Parse(row, p.formats)
	if err != nil {
		_ = p.consumer.Commit(ctx, *msg)
		return stage.OutcomeFailure, string(msg.Key), time.Time{}, fmt.Errorf("validatorstage: parse: %w", err), false
	}

	issues := fireevent.Analyze(event, p.cfg.AdditionalAllowedEmptyFields)

	out, err := p.fork(ctx, msg, row, issues)
	if err != nil {
		// left uncommitted so the record is redelivered once the batch aborts
		return stage.OutcomeFailure, string(msg.Key), time.Time{}, fmt.Errorf("validatorstage: publish: %w", err), true
	}

	if err := p.consumer.Commit(ctx, *msg); err != nil {
		return stage.OutcomeFailure, string(msg.Key), time.Time{}, fmt.Errorf("validatorstage: commit: %w", err), true
	}

	ts := time.Time{}
	if event.IncidentDate != nil {
		ts = *event.IncidentDate
	}
	return stage.OutcomeSuccess, out, ts, nil, false
}

// fork publishes row to the validated topic when issues is empty, or to the
// rejected topic carrying the issues mapping otherwise (§4.3 Quality rules).
// Both lanes use the original message key, preserving partition locality.
func (p *Processor) fork(ctx context.Context, msg *bus.Message, row fireevent.RawRow, issues fireevent.QualityIssues) (string, error) {
	if len(issues) == 0 {
		if err := p.validOut.Produce(ctx, msg.Key, msg.Value, nil); err != nil {
			return "", fmt.Errorf("publish validated: %w", err)
		}
		return string(msg.Key), nil
	}

	payload := rejectedPayload(row, issues)
	value, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal rejected payload: %w", err)
	}
	if err := p.rejOut.Produce(ctx, msg.Key, value, nil); err != nil {
		return "", fmt.Errorf("publish rejected: %w", err)
	}
	return string(msg.Key), nil
}

// rejectedPayload carries the original row's attributes plus the
// data_quality_issues mapping (§4.3), matching the original
// value-unchanged-plus-issues shape.
func rejectedPayload(row fireevent.RawRow, issues fireevent.QualityIssues) map[string]any {
	out := make(map[string]any, len(row.Columns())+1)
	for _, c := range row.Columns() {
		out[c] = row.Get(c)
	}
	out["data_quality_issues"] = issues
	return out
}

// Flush implements stage.Processor: both output producers must drain before
// the batch closes, so a crash after flush never loses an acknowledged read.
func (p *Processor) Flush(ctx context.Context) error {
	if err := p.validOut.Flush(ctx, p.cfg.MainLoopTimeout); err != nil {
		return fmt.Errorf("validatorstage: flush validated producer: %w", err)
	}
	if err := p.rejOut.Flush(ctx, p.cfg.MainLoopTimeout); err != nil {
		return fmt.Errorf("validatorstage: flush rejected producer: %w", err)
	}
	return nil
}
