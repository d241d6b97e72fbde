package controllers

import (
	"fmt"
	"time"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Tracker is the sole owner of execution record mutations. Records are
// created running and transition exactly once to success or error; a second
// transition is refused.
type Tracker struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewTracker creates a new execution tracker
func NewTracker(db *models.Database, logger *logrus.Logger) *Tracker {
	return &Tracker{db: db, logger: logger}
}

// Start creates a running execution for one list within one run
func (t *Tracker) Start(listID uint64, batchID string, trigger models.TriggerKind) (*models.ProcessingExecution, error) {
	exec := &models.ProcessingExecution{
		ListID:    listID,
		BatchID:   batchID,
		Trigger:   trigger,
		Status:    models.ExecutionRunning,
		StartedAt: time.Now(),
	}

	if err := t.db.CreateExecution(exec); err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"execution_id": exec.ID,
		"list_id":      listID,
		"batch_id":     batchID,
		"trigger":      trigger,
	}).Info("Execution started")

	return exec, nil
}

// Succeed transitions a running execution to success with its final counts
func (t *Tracker) Succeed(exec *models.ProcessingExecution, found, requested, failed int) error {
	if !t.terminable(exec) {
		return nil
	}

	now := time.Now()
	exec.Status = models.ExecutionSuccess
	exec.CompletedAt = &now
	exec.ItemsFound = found
	exec.ItemsRequested = requested
	exec.ItemsFailed = failed

	if err := t.db.UpdateExecution(exec); err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"execution_id": exec.ID,
		"list_id":      exec.ListID,
		"found":        found,
		"requested":    requested,
		"failed":       failed,
	}).Info("Execution succeeded")

	return nil
}

// Fail transitions a running execution to error with the captured message
func (t *Tracker) Fail(exec *models.ProcessingExecution, message string) error {
	if !t.terminable(exec) {
		return nil
	}

	now := time.Now()
	exec.Status = models.ExecutionError
	exec.CompletedAt = &now
	exec.ErrorMessage = message

	if err := t.db.UpdateExecution(exec); err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"execution_id": exec.ID,
		"list_id":      exec.ListID,
		"error":        message,
	}).Warn("Execution failed")

	return nil
}

// terminable reports whether the execution can still reach a terminal state
func (t *Tracker) terminable(exec *models.ProcessingExecution) bool {
	if exec.Status != models.ExecutionRunning {
		t.logger.WithFields(logrus.Fields{
			"execution_id": exec.ID,
			"status":       exec.Status,
		}).Warn("Refusing second transition on terminal execution")
		return false
	}
	return true
}
