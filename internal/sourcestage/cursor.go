package sourcestage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/calebebrim/fireevents-pipeline/internal/kvstore"
)

// fileCursor is the KV-resident progress marker for one CSV file (§3).
type fileCursor struct {
	LatestRow int  `json:"latest_row"`
	Completed bool `json:"completed"`
}

func fileCursorKey(service, path string) string {
	return fmt.Sprintf("%s:file:%s", service, path)
}

func rowCursorKey(service, id string) string {
	return fmt.Sprintf("%s:message:%s", service, id)
}

func watermarkKey(service string) string {
	return fmt.Sprintf("%s:latest_event_timestamp", service)
}

// loadFileCursor reads the cursor for path, creating a zero-value one on
// first touch (§3 "Cursors are created on first touch").
func loadFileCursor(ctx context.Context, store kvstore.Store, service, path string) (fileCursor, error) {
	key := fileCursorKey(service, path)
	raw, err := store.Get(ctx, key)
	if err == kvstore.ErrNotFound {
		fc := fileCursor{}
		if err := saveFileCursor(ctx, store, service, path, fc); err != nil {
			return fileCursor{}, err
		}
		return fc, nil
	}
	if err != nil {
		return fileCursor{}, fmt.Errorf("sourcestage: load file cursor %s: %w", key, err)
	}
	var fc fileCursor
	if err := json.Unmarshal([]byte(raw), &fc); err != nil {
		return fileCursor{}, fmt.Errorf("sourcestage: decode file cursor %s: %w", key, err)
	}
	return fc, nil
}

func saveFileCursor(ctx context.Context, store kvstore.Store, service, path string, fc fileCursor) error {
	raw, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("sourcestage: encode file cursor: %w", err)
	}
	if err := store.Set(ctx, fileCursorKey(service, path), string(raw)); err != nil {
		return fmt.Errorf("sourcestage: save file cursor: %w", err)
	}
	return nil
}

// rowCursorProcessed reports whether row id has already been marked
// delivered by a prior producer acknowledgement.
func rowCursorProcessed(ctx context.Context, store kvstore.Store, service, id string) (bool, error) {
	raw, err := store.Get(ctx, rowCursorKey(service, id))
	if err == kvstore.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sourcestage: read row cursor: %w", err)
	}
	var v struct {
		Processed bool `json:"processed"`
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return false, nil
	}
	return v.Processed, nil
}

// rowID coerces a row's ID column to an integer, defaulting to 0 for
// non-numeric input (§4.2 "Non-numeric row_id" edge case).
func rowID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0
	}
	return n
}
