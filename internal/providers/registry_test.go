package providers

import (
	"context"
	"testing"

	"github.com/amaumene/listarr/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	kind models.ProviderKind
}

func (s *stubFetcher) Kind() models.ProviderKind { return s.kind }

func (s *stubFetcher) FetchItems(context.Context, string, int, Credentials) ([]models.MediaItem, error) {
	return nil, nil
}

func TestRegistryGet(t *testing.T) {
	mdblist := &stubFetcher{kind: models.ProviderMDBList}
	trakt := &stubFetcher{kind: models.ProviderTrakt}

	registry, err := NewRegistry(mdblist, trakt)
	require.NoError(t, err)

	found, err := registry.Get(models.ProviderTrakt)
	require.NoError(t, err)
	assert.Same(t, trakt, found)
}

func TestRegistryUnknownKind(t *testing.T) {
	registry, err := NewRegistry(&stubFetcher{kind: models.ProviderMDBList})
	require.NoError(t, err)

	_, err = registry.Get(models.ProviderIMDB)
	assert.ErrorIs(t, err, ErrNoFetcher)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		&stubFetcher{kind: models.ProviderMDBList},
		&stubFetcher{kind: models.ProviderMDBList},
	)
	assert.Error(t, err)
}

func TestRegistryRejectsNil(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)
}
