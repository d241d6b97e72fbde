package providers

import (
	"context"

	"github.com/amaumene/listarr/internal/models"
)

// Credentials is the per-provider credential bundle resolved by the settings
// layer. Which fields matter depends on the fetcher.
type Credentials struct {
	APIKey   string
	ClientID string
}

// Fetcher retrieves and normalizes items for one catalog provider.
//
// Implementations must drop upstream records without a usable TMDB id (they
// are not requestable downstream) and treat maxItems as a limit passed to the
// upstream API wherever it supports one, not just a post-fetch truncation.
type Fetcher interface {
	Kind() models.ProviderKind
	FetchItems(ctx context.Context, sourceURL string, maxItems int, creds Credentials) ([]models.MediaItem, error)
}
