package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/studentily-be/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// OrphanStore removes resources whose owner account no longer exists.
type OrphanStore interface {
	PurgeOrphans(ctx context.Context, kind models.Kind) (int64, error)
}

// PurgeRecorder counts purged resources.
type PurgeRecorder interface {
	RecordOrphansPurged(kind string, count int64)
}

// OrphanPurger deletes resources left behind by deleted accounts on a cron schedule.
type OrphanPurger struct {
	store    OrphanStore
	recorder PurgeRecorder
	cron     *cron.Cron
	timeout  time.Duration
	mu       sync.Mutex
}

// NewOrphanPurger creates a purger that runs on the given standard cron spec
// (descriptors such as "@hourly" are accepted).
func NewOrphanPurger(store OrphanStore, recorder PurgeRecorder, spec string) (*OrphanPurger, error) {
	p := &OrphanPurger{
		store:    store,
		recorder: recorder,
		cron:     cron.New(),
		timeout:  time.Minute,
	}
	if _, err := p.cron.AddFunc(spec, func() { p.PurgeOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", spec, err)
	}
	return p, nil
}

// Run starts the cron loop in its own goroutine.
func (p *OrphanPurger) Run() {
	log.Info().Msg("Starting orphan purger...")
	p.cron.Start()
}

// Stop halts the schedule and waits for a running purge to finish.
func (p *OrphanPurger) Stop() {
	<-p.cron.Stop().Done()
	log.Info().Msg("Stopped orphan purger.")
}

// PurgeOnce sweeps every resource kind. Overlapping runs are skipped.
func (p *OrphanPurger) PurgeOnce(ctx context.Context) int64 {
	if !p.mu.TryLock() {
		log.Warn().Msg("Orphan purge already running, skipping")
		return 0
	}
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var total int64
	for _, spec := range models.Kinds() {
		n, err := p.store.PurgeOrphans(ctx, spec.Kind)
		if err != nil {
			log.Error().Err(err).Str("kind", string(spec.Kind)).Msg("Failed to purge orphaned resources")
			continue
		}
		if p.recorder != nil {
			p.recorder.RecordOrphansPurged(string(spec.Kind), n)
		}
		if n > 0 {
			log.Info().Int64("count", n).Str("kind", string(spec.Kind)).Msg("Purged orphaned resources")
		}
		total += n
	}
	return total
}
