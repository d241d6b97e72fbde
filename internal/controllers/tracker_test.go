package controllers

import (
	"path/filepath"
	"testing"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *models.Database) {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "listarr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return NewTracker(db, logger), db
}

func TestTrackerStartCreatesRunningExecution(t *testing.T) {
	tracker, db := newTestTracker(t)

	exec, err := tracker.Start(3, "manual-123-abcdef01", models.TriggerManual)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionRunning, exec.Status)
	assert.False(t, exec.StartedAt.IsZero())
	assert.Nil(t, exec.CompletedAt)

	stored, err := db.GetExecutionByID(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionRunning, stored.Status)
	assert.Equal(t, uint64(3), stored.ListID)
}

func TestTrackerSucceedSetsCounts(t *testing.T) {
	tracker, db := newTestTracker(t)

	exec, err := tracker.Start(3, "manual-123-abcdef01", models.TriggerManual)
	require.NoError(t, err)
	require.NoError(t, tracker.Succeed(exec, 10, 7, 3))

	stored, err := db.GetExecutionByID(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionSuccess, stored.Status)
	assert.Equal(t, 10, stored.ItemsFound)
	assert.Equal(t, 7, stored.ItemsRequested)
	assert.Equal(t, 3, stored.ItemsFailed)
	assert.NotNil(t, stored.CompletedAt)
}

func TestTrackerRefusesSecondTransition(t *testing.T) {
	tracker, db := newTestTracker(t)

	exec, err := tracker.Start(3, "manual-123-abcdef01", models.TriggerManual)
	require.NoError(t, err)
	require.NoError(t, tracker.Fail(exec, "provider unreachable"))

	// Terminal records are never resurrected
	require.NoError(t, tracker.Succeed(exec, 5, 5, 0))

	stored, err := db.GetExecutionByID(exec.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionError, stored.Status)
	assert.Equal(t, "provider unreachable", stored.ErrorMessage)
	assert.Zero(t, stored.ItemsRequested)
}
