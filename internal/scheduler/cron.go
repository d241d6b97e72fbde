package scheduler

import (
	"fmt"
	"sync"

	"github.com/amaumene/listarr/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ProcessListFunc runs the pipeline for one list on timer fire
type ProcessListFunc func(listID uint64, trigger models.TriggerKind, userID uint64) error

// ProcessBatchFunc runs the full batch pipeline on timer fire
type ProcessBatchFunc func(trigger models.TriggerKind) error

// Scheduler owns one cron timer per schedulable list plus a single global
// timer. The processing callbacks are injected at the composition point, so
// this package never depends on the controllers.
type Scheduler struct {
	cron        *cron.Cron
	db          *models.Database
	timezone    string
	processList ProcessListFunc
	processAll  ProcessBatchFunc
	logger      *logrus.Logger

	mu          sync.Mutex
	listEntries map[uint64]cron.EntryID
	globalEntry cron.EntryID
	hasGlobal   bool
}

// NewScheduler creates a new scheduler
func NewScheduler(db *models.Database, timezone string, processList ProcessListFunc, processAll ProcessBatchFunc, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		db:          db,
		timezone:    timezone,
		processList: processList,
		processAll:  processAll,
		logger:      logger,
		listEntries: make(map[uint64]cron.EntryID),
	}
}

// Start starts the timer engine
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the timer engine; running jobs finish on their own
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// LoadScheduledLists re-derives every per-list timer from the current set of
// enabled lists carrying a cron expression. Any previously installed timer
// for the same list is replaced, so the method is safe to call after any
// configuration change.
func (s *Scheduler) LoadScheduledLists() error {
	lists, err := s.db.GetScheduledLists()
	if err != nil {
		return fmt.Errorf("failed to load scheduled lists: %w", err)
	}

	current := make(map[uint64]struct{}, len(lists))
	for _, list := range lists {
		current[list.ID] = struct{}{}
		if err := s.scheduleList(list); err != nil {
			return err
		}
	}

	// Drop timers for lists that are gone or no longer schedulable
	s.mu.Lock()
	var stale []uint64
	for listID := range s.listEntries {
		if _, ok := current[listID]; !ok {
			stale = append(stale, listID)
		}
	}
	s.mu.Unlock()

	for _, listID := range stale {
		s.UnscheduleList(listID)
	}

	s.logger.WithField("count", len(lists)).Info("Scheduled lists loaded")
	return nil
}

// scheduleList installs or replaces the timer for one list
func (s *Scheduler) scheduleList(list *models.MediaList) error {
	s.UnscheduleList(list.ID)

	listID := list.ID
	userID := list.UserID

	entryID, err := s.cron.AddFunc(s.spec(list.Schedule), func() {
		s.fire(fmt.Sprintf("list %d", listID), func() error {
			return s.processList(listID, models.TriggerScheduled, userID)
		})
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for list %d: %w", list.Schedule, list.ID, err)
	}

	s.mu.Lock()
	s.listEntries[list.ID] = entryID
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"list_id":   list.ID,
		"schedule":  list.Schedule,
		"timezone":  s.timezone,
		"next_fire": s.cron.Entry(entryID).Next,
	}).Info("List timer installed")

	return nil
}

// UnscheduleList stops and removes the timer for one list if present
func (s *Scheduler) UnscheduleList(listID uint64) {
	s.mu.Lock()
	entryID, ok := s.listEntries[listID]
	if ok {
		delete(s.listEntries, listID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	s.cron.Remove(entryID)
	s.logger.WithFields(logrus.Fields{
		"list_id":  listID,
		"timezone": s.timezone,
	}).Info("List timer removed")
}

// ScheduleGlobal installs the single process-everything timer, replacing any
// previous one. An invalid expression fails here, not at fire time.
func (s *Scheduler) ScheduleGlobal(expression string) error {
	s.mu.Lock()
	if s.hasGlobal {
		s.cron.Remove(s.globalEntry)
		s.hasGlobal = false
	}
	s.mu.Unlock()

	entryID, err := s.cron.AddFunc(s.spec(expression), func() {
		s.fire("batch", func() error {
			return s.processAll(models.TriggerScheduled)
		})
	})
	if err != nil {
		return fmt.Errorf("invalid global schedule %q: %w", expression, err)
	}

	s.mu.Lock()
	s.globalEntry = entryID
	s.hasGlobal = true
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"schedule":  expression,
		"timezone":  s.timezone,
		"next_fire": s.cron.Entry(entryID).Next,
	}).Info("Global timer installed")

	return nil
}

// spec prefixes the expression with the configured timezone
func (s *Scheduler) spec(expression string) string {
	if s.timezone == "" {
		return expression
	}
	return fmt.Sprintf("CRON_TZ=%s %s", s.timezone, expression)
}

// fire runs one triggered job in its own goroutine. Errors and panics are
// logged and stop there; a misbehaving run must never reach the timer engine
// or block sibling timers.
func (s *Scheduler) fire(target string, job func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithFields(logrus.Fields{
					"target": target,
					"panic":  r,
				}).Error("Scheduled run panicked")
			}
		}()

		s.logger.WithField("target", target).Info("Timer fired")
		if err := job(); err != nil {
			s.logger.WithError(err).WithField("target", target).Error("Scheduled run failed")
		}
	}()
}
