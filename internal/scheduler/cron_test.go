package scheduler

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callRecorder struct {
	mu    sync.Mutex
	lists []uint64
	batch int
}

func (c *callRecorder) processList(listID uint64, _ models.TriggerKind, _ uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = append(c.lists, listID)
	return nil
}

func (c *callRecorder) processBatch(_ models.TriggerKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch++
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *models.Database, *callRecorder) {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "listarr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	rec := &callRecorder{}
	sched := NewScheduler(db, "UTC", rec.processList, rec.processBatch, logger)
	t.Cleanup(sched.Stop)

	return sched, db, rec
}

func addScheduledList(t *testing.T, db *models.Database, name, schedule string) *models.MediaList {
	t.Helper()

	list := &models.MediaList{
		Name:      name,
		Provider:  models.ProviderMDBList,
		SourceURL: "https://mdblist.com/lists/u/" + name,
		Enabled:   true,
		MaxItems:  10,
		Schedule:  schedule,
		UserID:    1,
	}
	require.NoError(t, db.CreateList(list))
	return list
}

func TestLoadScheduledListsInstallsTimers(t *testing.T) {
	sched, db, _ := newTestScheduler(t)

	addScheduledList(t, db, "a", "0 * * * *")
	addScheduledList(t, db, "b", "30 2 * * *")

	require.NoError(t, sched.LoadScheduledLists())
	assert.Len(t, sched.listEntries, 2)
}

func TestLoadScheduledListsIsIdempotent(t *testing.T) {
	sched, db, _ := newTestScheduler(t)

	list := addScheduledList(t, db, "a", "0 * * * *")

	require.NoError(t, sched.LoadScheduledLists())
	first := sched.listEntries[list.ID]

	// A reload replaces the entry instead of stacking a second timer
	require.NoError(t, sched.LoadScheduledLists())
	assert.Len(t, sched.listEntries, 1)
	assert.NotEqual(t, first, sched.listEntries[list.ID])
	assert.Len(t, sched.cron.Entries(), 1)
}

func TestLoadScheduledListsDropsStaleTimers(t *testing.T) {
	sched, db, _ := newTestScheduler(t)

	list := addScheduledList(t, db, "a", "0 * * * *")
	require.NoError(t, sched.LoadScheduledLists())
	require.Len(t, sched.listEntries, 1)

	list.Enabled = false
	require.NoError(t, db.UpdateList(list))

	require.NoError(t, sched.LoadScheduledLists())
	assert.Empty(t, sched.listEntries)
	assert.Empty(t, sched.cron.Entries())
}

func TestLoadScheduledListsRejectsInvalidCron(t *testing.T) {
	sched, db, _ := newTestScheduler(t)

	addScheduledList(t, db, "bad", "not a cron expression")

	err := sched.LoadScheduledLists()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}

func TestUnscheduleListIsNoOpWhenAbsent(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	sched.UnscheduleList(42)
	assert.Empty(t, sched.listEntries)
}

func TestScheduleGlobalReplacesPreviousTimer(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	require.NoError(t, sched.ScheduleGlobal("0 */6 * * *"))
	require.NoError(t, sched.ScheduleGlobal("0 */12 * * *"))

	assert.Len(t, sched.cron.Entries(), 1)
}

func TestScheduleGlobalRejectsInvalidCron(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	err := sched.ScheduleGlobal("61 * * * *")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid global schedule")
}

func TestFireNeverPanicsTheEngine(t *testing.T) {
	sched, _, _ := newTestScheduler(t)

	done := make(chan struct{})
	sched.fire("test", func() error {
		defer close(done)
		panic("boom")
	})

	<-done
	// Reaching here means the panic was contained in the job goroutine
}
