package scheduler

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kurihiro0119/github-sentinel/internal/config"
	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

// Scheduler fires a single job daily or weekly (Mondays) at a fixed
// time-of-day in the host's local time. It is an explicit handle owned by
// the caller: Start blocks until Stop is called, run it in a goroutine for
// background scheduling. A firing in progress is never interrupted; Stop
// only cancels future firings. An occurrence missed while the process was
// down is skipped, never caught up.
type Scheduler struct {
	interval domain.Interval
	hour     int
	minute   int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a scheduler for the given interval and "HH:MM" time-of-day
func New(interval domain.Interval, timeOfDay string) (*Scheduler, error) {
	if interval != domain.IntervalDaily && interval != domain.IntervalWeekly {
		return nil, fmt.Errorf("unknown interval: %s", interval)
	}
	hour, minute, err := config.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		interval: interval,
		hour:     hour,
		minute:   minute,
	}, nil
}

// NextRun returns the first trigger instant strictly after from
func (s *Scheduler) NextRun(from time.Time) time.Time {
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, from.Location())

	if s.interval == domain.IntervalWeekly {
		for next.Weekday() != time.Monday || !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	}

	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Describe returns a human-readable schedule description
func (s *Scheduler) Describe() string {
	if s.interval == domain.IntervalWeekly {
		return fmt.Sprintf("every Monday at %02d:%02d", s.hour, s.minute)
	}
	return fmt.Sprintf("every day at %02d:%02d", s.hour, s.minute)
}

// Start registers the job and blocks until Stop is called. Only one job
// per scheduler instance; starting an already-running scheduler is an
// error.
func (s *Scheduler) Start(job func()) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	log.Printf("scheduler started, firing %s", s.Describe())

	for {
		next := s.NextRun(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			job()
		case <-stopCh:
			timer.Stop()
			log.Printf("scheduler stopped")
			return nil
		}
	}
}

// Stop cancels future firings. A job already in progress finishes on its
// own. Safe to call on a scheduler that was never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// Running reports whether the scheduling loop is active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
