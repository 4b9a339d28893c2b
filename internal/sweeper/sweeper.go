// Package sweeper removes conversations nobody finished. It is off unless a maximum
// conversation age is configured.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs the sweep once an hour.
const DefaultSchedule = "@hourly"

// Store deletes conversations and their add-data created before a cutoff.
type Store interface {
	DeleteConversationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountConversations(ctx context.Context) (int, error)
}

// Sweeper runs the stale conversation cleanup on a cron schedule.
type Sweeper struct {
	store   Store
	maxAge  time.Duration
	pattern string
	cron    *cron.Cron
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entryID cron.EntryID
	running bool
}

// New validates the schedule. A maxAge of zero disables sweeping.
func New(log *slog.Logger, store Store, maxAge time.Duration, pattern string) (*Sweeper, error) {
	if log == nil {
		log = slog.Default()
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		pattern = DefaultSchedule
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if maxAge > 0 {
		if _, err := parser.Parse(pattern); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", pattern, err)
		}
	}
	return &Sweeper{
		store:   store,
		maxAge:  maxAge,
		pattern: pattern,
		cron:    cron.New(cron.WithParser(parser)),
		logger:  log.With(slog.String("service", "sweeper")),
		now:     time.Now,
	}, nil
}

// Enabled reports whether a maximum conversation age is configured.
func (s *Sweeper) Enabled() bool {
	return s.maxAge > 0
}

// Start schedules the sweep job.
func (s *Sweeper) Start(context.Context) error {
	if !s.Enabled() {
		s.logger.Info("conversation sweeping disabled")
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	entryID, err := s.cron.AddFunc(s.pattern, func() {
		_, _ = s.Sweep(context.Background())
	})
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.running = true
	s.cron.Start()
	s.logger.Info("conversation sweeping scheduled", slog.String("schedule", s.pattern), slog.Duration("max_age", s.maxAge))
	return nil
}

// Stop unschedules the job and waits for a running sweep or ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cron.Remove(s.entryID)
	s.running = false
	s.mu.Unlock()

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep deletes every conversation older than the maximum age and logs how many are left.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.store.DeleteConversationsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep failed", slog.Any("error", err))
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	remaining, err := s.store.CountConversations(ctx)
	if err != nil {
		s.logger.Warn("count conversations", slog.Any("error", err))
		remaining = -1
	}
	s.logger.Info("stale conversations removed",
		slog.Int64("count", n), slog.Int("remaining", remaining), slog.Time("cutoff", cutoff))
	return n, nil
}
