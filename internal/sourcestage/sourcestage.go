// Package sourcestage implements the CSV-to-raw-topic stage (§4.2): it walks
// a configured directory, skips rows already delivered in prior runs using
// KV-resident cursors, and publishes the rest keyed by incident number so
// every exposure of one incident lands on the same bus partition.
package sourcestage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/calebebrim/fireevents-pipeline/internal/bus"
	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/csvsource"
	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
	"github.com/calebebrim/fireevents-pipeline/internal/stage"
)

// Processor implements stage.Processor for the source stage.
type Processor struct {
	cfg      config.SourceConfig
	store    kvstore.Store
	producer bus.Producer
	admin    bus.Admin
	log      *log.Logger
	formats  []string
	ack      *ackWorker

	files   []string
	fileIdx int

	reader     *csvsource.Reader
	readerPath string
	cursor     fileCursor
}

// New constructs a source-stage Processor.
func New(cfg config.SourceConfig, store kvstore.Store, producer bus.Producer, admin bus.Admin, logger *log.Logger) *Processor {
	formats := append(append([]string{}, cfg.DateTimeFormats...), cfg.DateFormat)
	return &Processor{
		cfg:      cfg,
		store:    store,
		producer: producer,
		admin:    admin,
		log:      logger,
		formats:  formats,
		ack:      newAckWorker(store, cfg.ServiceName, formats, logger),
	}
}

// Teardown implements stage.Restarter (§4.1 RESTART mode).
func (p *Processor) Teardown(ctx context.Context) error {
	if err := p.store.Delete(ctx, watermarkKey(p.cfg.ServiceName)); err != nil {
		return fmt.Errorf("sourcestage: delete watermark: %w", err)
	}
	if _, err := p.store.DeleteMatching(ctx, p.cfg.ServiceName+":message:*"); err != nil {
		return fmt.Errorf("sourcestage: delete row cursors: %w", err)
	}
	if _, err := p.store.DeleteMatching(ctx, p.cfg.ServiceName+":file:*"); err != nil {
		return fmt.Errorf("sourcestage: delete file cursors: %w", err)
	}
	if p.admin != nil {
		if err := p.admin.DeleteTopic(ctx, p.cfg.SourceTopic); err != nil {
			return fmt.Errorf("sourcestage: delete topic: %w", err)
		}
	}
	return nil
}

// EnsureTopic creates the source topic if absent; called once at startup by
// the owning main, outside RESTART mode.
func (p *Processor) EnsureTopic(ctx context.Context, partitions, replicationFactor int) error {
	if p.admin == nil {
		return nil
	}
	return p.admin.CreateTopicIfNotExists(ctx, p.cfg.SourceTopic, partitions, replicationFactor)
}

// effectiveStartDate implements §4.2's max(configured_start_date, watermark) arbitration.
func (p *Processor) effectiveStartDate(ctx context.Context) time.Time {
	raw, err := p.store.Get(ctx, watermarkKey(p.cfg.ServiceName))
	if err != nil {
		return p.cfg.StartDate
	}
	wm, ok := parseAny(raw, p.formats)
	if !ok || wm.Before(p.cfg.StartDate) {
		return p.cfg.StartDate
	}
	return wm
}

// listFiles lists the configured CSV directory in stable order so repeated
// passes visit files consistently.
func (p *Processor) listFiles() error {
	entries, err := os.ReadDir(p.cfg.CSVFolderPath)
	if err != nil {
		return fmt.Errorf("sourcestage: list %s: %w", p.cfg.CSVFolderPath, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(p.cfg.CSVFolderPath, e.Name()))
		}
	}
	sort.Strings(files)
	p.files = files
	p.fileIdx = 0
	return nil
}

// ProcessOne implements stage.Processor (§4.2 Row processing order).
func (p *Processor) ProcessOne(ctx context.Context) (stage.Outcome, string, time.Time, error, bool) {
	if p.files == nil {
		if err := p.listFiles(); err != nil {
			return stage.OutcomeFailure, "", time.Time{}, err, true
		}
		if len(p.files) == 0 {
			return stage.OutcomeDone, "", time.Time{}, nil, false
		}
	}

	startDate := p.effectiveStartDate(ctx)

	for {
		if p.reader == nil {
			if p.fileIdx >= len(p.files) {
				p.files = nil // re-list the directory on the next call/pass
				return stage.OutcomeDone, "", time.Time{}, nil, false
			}
			path := p.files[p.fileIdx]
			cursor, err := loadFileCursor(ctx, p.store, p.cfg.ServiceName, path)
			if err != nil {
				return stage.OutcomeFailure, path, time.Time{}, err, true
			}
			if cursor.Completed {
				p.fileIdx++
				continue
			}
			reader, err := csvsource.Open(path)
			if err != nil {
				return stage.OutcomeFailure, path, time.Time{}, err, true
			}
			p.reader = reader
			p.readerPath = path
			p.cursor = cursor
		}

		row, err := p.reader.Next()
		if err != nil {
			p.reader.Close()
			p.reader = nil
			p.fileIdx++
			continue
		}

		if row.IsEndOfFile() {
			p.cursor.Completed = true
			if err := saveFileCursor(ctx, p.store, p.cfg.ServiceName, p.readerPath, p.cursor); err != nil {
				return stage.OutcomeFailure, p.readerPath, time.Time{}, err, true
			}
			p.reader.Close()
			p.reader = nil
			p.fileIdx++
			continue
		}

		id := row.Get(fireevent.ColID)
		rid := rowID(id)
		if rid <= p.cursor.LatestRow {
			continue
		}

		incidentDateStr := row.Get(fireevent.ColIncidentDate)
		if incidentDateStr == "" {
			p.advanceFileCursor(ctx, rid)
			continue
		}
		incidentDate, ok := parseAny(incidentDateStr, p.formats)
		if !ok {
			p.advanceFileCursor(ctx, rid)
			return stage.OutcomeFailure, id, time.Time{},
				fmt.Errorf("sourcestage: unparseable incident date %q for row %s", incidentDateStr, id), false
		}

		if incidentDate.Before(startDate) {
			p.advanceFileCursor(ctx, rid)
			continue
		}

		incidentNumber := row.Get(fireevent.ColIncidentNumber)

		processed, err := rowCursorProcessed(ctx, p.store, p.cfg.ServiceName, id)
		if err != nil {
			return stage.OutcomeFailure, id, time.Time{}, err, true
		}
		if processed {
			p.advanceFileCursor(ctx, rid)
			continue
		}

		value, err := json.Marshal(row)
		if err != nil {
			p.advanceFileCursor(ctx, rid)
			return stage.OutcomeFailure, id, time.Time{}, fmt.Errorf("sourcestage: marshal row %s: %w", id, err), false
		}

		ack := ackEvent{
			id:              id,
			incidentNumber:  incidentNumber,
			incidentDateStr: incidentDateStr,
			incidentDate:    incidentDate,
		}
		if err := p.producer.Produce(ctx, []byte(incidentNumber), value, func(_ bus.Message, deliveryErr error) {
			ack.deliveryErr = deliveryErr
			p.ack.Enqueue(ack)
		}); err != nil {
			return stage.OutcomeFailure, id, time.Time{}, fmt.Errorf("sourcestage: produce: %w", err), true
		}

		p.advanceFileCursor(ctx, rid)
		return stage.OutcomeSuccess, incidentNumber, incidentDate, nil, false
	}
}

func (p *Processor) advanceFileCursor(ctx context.Context, rid int) {
	if rid <= p.cursor.LatestRow {
		return
	}
	p.cursor.LatestRow = rid
	if err := saveFileCursor(ctx, p.store, p.cfg.ServiceName, p.readerPath, p.cursor); err != nil {
		p.log.Printf("sourcestage: failed to advance file cursor for %s: %v", p.readerPath, err)
	}
}

// Flush implements stage.Processor: it flushes the bus producer and then
// waits for the ack worker to finish applying every acknowledgement it has
// already received, so a batch report never undercounts durable cursors.
func (p *Processor) Flush(ctx context.Context) error {
	if err := p.producer.Flush(ctx, p.cfg.MainLoopTimeout); err != nil {
		return fmt.Errorf("sourcestage: flush producer: %w", err)
	}
	return p.ack.Drain(ctx, p.cfg.MainLoopTimeout)
}

// Close releases the ack worker and underlying CSV reader, if any.
func (p *Processor) Close() {
	if p.reader != nil {
		p.reader.Close()
	}
	p.ack.Close()
}
