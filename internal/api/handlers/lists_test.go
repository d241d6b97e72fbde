package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReloader struct {
	reloads     int
	unscheduled []uint64
}

func (s *stubReloader) LoadScheduledLists() error { s.reloads++; return nil }

func (s *stubReloader) UnscheduleList(listID uint64) { s.unscheduled = append(s.unscheduled, listID) }

func newListsFixture(t *testing.T) (*ListsHandler, *models.Database, *stubReloader) {
	t.Helper()

	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "listarr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	reloader := &stubReloader{}
	return NewListsHandler(db, reloader, logger), db, reloader
}

func TestCreateListReloadsScheduler(t *testing.T) {
	handler, db, reloader := newListsFixture(t)

	body := `{"name":"Top Movies","provider":"mdblist","source_url":"https://mdblist.com/lists/u/top","schedule":"0 * * * *"}`
	req := httptest.NewRequest(http.MethodPost, "/api/lists", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, reloader.reloads)

	lists, err := db.GetAllLists()
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.True(t, lists[0].Enabled)
	assert.Equal(t, 20, lists[0].MaxItems)
}

func TestCreateListRejectsUnknownProvider(t *testing.T) {
	handler, _, reloader := newListsFixture(t)

	body := `{"name":"X","provider":"netflix","source_url":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/lists", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, reloader.reloads)
}

func TestDeleteListUnschedulesTimer(t *testing.T) {
	handler, db, reloader := newListsFixture(t)

	list := &models.MediaList{Name: "A", Provider: models.ProviderMDBList, SourceURL: "u", UserID: defaultUserID, MaxItems: 10}
	require.NoError(t, db.CreateList(list))

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/lists/{id}", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/lists/1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []uint64{list.ID}, reloader.unscheduled)

	lists, err := db.GetAllLists()
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestDeleteListNotFound(t *testing.T) {
	handler, _, _ := newListsFixture(t)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/lists/{id}", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/api/lists/99", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
