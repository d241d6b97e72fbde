package mdblist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/listarr/internal/models"
	"github.com/amaumene/listarr/internal/providers"
	"github.com/sirupsen/logrus"
)

// Fetcher retrieves list items from the MDBList JSON API
type Fetcher struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewFetcher creates a new MDBList fetcher
func NewFetcher(logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Kind returns the provider kind this fetcher handles
func (f *Fetcher) Kind() models.ProviderKind {
	return models.ProviderMDBList
}

// listItem is one entry of the MDBList /json payload
type listItem struct {
	Title       string `json:"title"`
	ReleaseYear int    `json:"release_year"`
	MediaType   string `json:"mediatype"` // "movie" or "show"
	ID          int64  `json:"id"`        // TMDB id
}

// FetchItems retrieves items for a list URL like https://mdblist.com/lists/{user}/{slug}
func (f *Fetcher) FetchItems(ctx context.Context, sourceURL string, maxItems int, creds providers.Credentials) ([]models.MediaItem, error) {
	if creds.APIKey == "" {
		return nil, fmt.Errorf("mdblist API key is required")
	}

	fetchURL := fmt.Sprintf("%s/json?apikey=%s&limit=%d",
		strings.TrimRight(sourceURL, "/"), url.QueryEscape(creds.APIKey), maxItems)

	f.logger.WithFields(logrus.Fields{
		"url":   sourceURL,
		"limit": maxItems,
	}).Debug("Fetching MDBList items")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &providers.UpstreamError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providers.UpstreamError{URL: sourceURL, StatusCode: resp.StatusCode}
	}

	var raw []listItem
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &providers.ParseError{URL: sourceURL, Err: err}
	}

	items := make([]models.MediaItem, 0, len(raw))
	for _, entry := range raw {
		if entry.ID == 0 {
			f.logger.WithField("title", entry.Title).Debug("Skipping entry without TMDB id")
			continue
		}

		kind := models.MediaKindMovie
		if entry.MediaType == "show" || entry.MediaType == "tv" {
			kind = models.MediaKindTV
		}

		items = append(items, models.MediaItem{
			Title:  entry.Title,
			Year:   entry.ReleaseYear,
			Kind:   kind,
			TMDBID: entry.ID,
		})

		if len(items) >= maxItems {
			break
		}
	}

	return items, nil
}
