package servingstage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calebebrim/fireevents-pipeline/internal/config"
	"github.com/calebebrim/fireevents-pipeline/internal/fireevent"
)

// errDuplicateFail is returned by storeEvent when on_duplicate=fail and the
// base revision already exists (§4.4 Duplicate policy, §7 Duplicate errors).
var errDuplicateFail = errors.New("duplicate event")

// baseKey is the key scheme's non-revisioned prefix (§4.4 Key scheme).
func (p *Processor) baseKey(incidentNumber string) string {
	return fmt.Sprintf("%s:%s", p.cfg.KeyPrefix, incidentNumber)
}

func revisionKey(base string, rev int) string {
	return fmt.Sprintf("%s:%d", base, rev)
}

// storeEvent applies the on_duplicate policy and writes event's hash
// serialisation to the key its revision resolves to (§4.4).
func (p *Processor) storeEvent(ctx context.Context, event *fireevent.FireEvent) error {
	base := p.baseKey(event.IncidentNumber)
	revZero := revisionKey(base, 0)

	exists, err := p.store.Exists(ctx, revZero)
	if err != nil {
		return fmt.Errorf("check existing revision: %w", err)
	}
	if !exists {
		return p.store.HSet(ctx, revZero, event.ToHash())
	}

	switch p.cfg.OnDuplicate {
	case config.OnDuplicateFail:
		return errDuplicateFail
	case config.OnDuplicateContinue:
		return nil
	case config.OnDuplicateReplace:
		return p.store.HSet(ctx, revZero, event.ToHash())
	case config.OnDuplicateVersion:
		latest, err := p.latestRevision(ctx, base)
		if err != nil {
			return fmt.Errorf("find latest revision: %w", err)
		}
		return p.store.HSet(ctx, revisionKey(base, latest+1), event.ToHash())
	default:
		return fmt.Errorf("unknown on_duplicate policy %q", p.cfg.OnDuplicate)
	}
}

// latestRevision scans "{base}:*" and returns the highest integer suffix
// found, or -1 if none (§4.4 Latest-revision discovery).
func (p *Processor) latestRevision(ctx context.Context, base string) (int, error) {
	keys, err := p.store.ScanKeys(ctx, base+":*")
	if err != nil {
		return -1, err
	}
	highest := -1
	for _, k := range keys {
		idx := strings.LastIndex(k, ":")
		if idx < 0 {
			continue
		}
		rev, err := strconv.Atoi(k[idx+1:])
		if err != nil {
			continue
		}
		if rev > highest {
			highest = rev
		}
	}
	return highest, nil
}
