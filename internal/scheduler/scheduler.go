// Package scheduler drives periodic syncs and the once-daily digest push.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Syncer runs one ingest pass.
type Syncer interface {
	Sync(ctx context.Context, syncType string) error
}

// DigestSender composes and pushes the daily briefing.
type DigestSender interface {
	SendDigest(ctx context.Context, now time.Time) error
}

// Config tunes the scheduler.
type Config struct {
	// SyncInterval is the gap between scheduled syncs; zero disables them.
	SyncInterval time.Duration
	// DigestHour is the local hour (0-23) the daily digest goes out;
	// negative disables it.
	DigestHour int
}

// DefaultConfig syncs every six hours and pushes the digest at 08:00.
func DefaultConfig() *Config {
	return &Config{
		SyncInterval: 6 * time.Hour,
		DigestHour:   8,
	}
}

// Scheduler ticks once a minute, firing syncs when the interval has elapsed
// and the digest once per day at the configured hour.
type Scheduler struct {
	syncer Syncer
	digest DigestSender
	config *Config
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	lastSync       time.Time
	lastDigestDate string

	// tick interval, shortened in tests
	tick time.Duration
	now  func() time.Time
}

// New creates a scheduler. Either dependency may be nil to disable that
// duty.
func New(syncer Syncer, digest DigestSender, cfg *Config, log zerolog.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		syncer: syncer,
		digest: digest,
		config: cfg,
		log:    log.With().Str("component", "scheduler").Logger(),
		ctx:    ctx,
		cancel: cancel,
		tick:   time.Minute,
		now:    time.Now,
	}
}

// Start begins the scheduler loop.
func (sch *Scheduler) Start() {
	sch.wg.Add(1)
	go sch.loop()
	sch.log.Info().
		Dur("sync_interval", sch.config.SyncInterval).
		Int("digest_hour", sch.config.DigestHour).
		Msg("scheduler started")
}

// Stop gracefully stops the scheduler.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.log.Info().Msg("scheduler stopped")
}

func (sch *Scheduler) loop() {
	defer sch.wg.Done()

	ticker := time.NewTicker(sch.tick)
	defer ticker.Stop()

	for {
		select {
		case <-sch.ctx.Done():
			return
		case <-ticker.C:
			sch.runDue()
		}
	}
}

// runDue fires whichever duties are due at this tick.
func (sch *Scheduler) runDue() {
	now := sch.now()

	if sch.syncer != nil && sch.config.SyncInterval > 0 {
		sch.mu.Lock()
		due := now.Sub(sch.lastSync) >= sch.config.SyncInterval
		if due {
			sch.lastSync = now
		}
		sch.mu.Unlock()

		if due {
			if err := sch.syncer.Sync(sch.ctx, "scheduled"); err != nil {
				sch.log.Error().Err(err).Msg("scheduled sync failed")
			}
		}
	}

	if sch.digest != nil && sch.config.DigestHour >= 0 && now.Hour() == sch.config.DigestHour {
		date := now.Format("2006-01-02")
		sch.mu.Lock()
		due := sch.lastDigestDate != date
		if due {
			sch.lastDigestDate = date
		}
		sch.mu.Unlock()

		if due {
			if err := sch.digest.SendDigest(sch.ctx, now); err != nil {
				sch.log.Error().Err(err).Msg("daily digest failed")
			}
		}
	}
}
