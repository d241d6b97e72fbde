package trakt

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

const (
	baseURL    = "https://api.trakt.tv"
	apiVersion = "2"
)

// Fetcher retrieves list items from the Trakt API
type Fetcher struct {
	httpClient *http.Client
	apiURL     string
	logger     *logrus.Logger
}

// NewFetcher creates a new Trakt fetcher
func NewFetcher(logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     baseURL,
		logger:     logger,
	}
}

// Kind returns the provider kind this fetcher handles
func (f *Fetcher) Kind() models.ProviderKind {
	return models.ProviderTrakt
}

// listEntry is one item of a Trakt list response
type listEntry struct {
	Type  string `json:"type"` // "movie" or "show"
	Movie *struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			TMDB int64 `json:"tmdb"`
		} `json:"ids"`
	} `json:"movie,omitempty"`
	Show *struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			TMDB int64 `json:"tmdb"`
		} `json:"ids"`
	} `json:"show,omitempty"`
}

// listPath converts a public list URL like
// https://trakt.tv/users/{user}/lists/{slug} into the API items path.
func listPath(sourceURL string) (string, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("invalid trakt list URL %q: %w", sourceURL, err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "users" || parts[2] != "lists" {
		return "", fmt.Errorf("invalid trakt list URL %q: expected /users/{user}/lists/{slug}", sourceURL)
	}

	return fmt.Sprintf("/users/%s/lists/%s/items", parts[1], parts[3]), nil
}

// FetchItems retrieves items for a Trakt list URL
func (f *Fetcher) FetchItems(ctx context.Context, sourceURL string, maxItems int, creds providers.Credentials) ([]models.MediaItem, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("trakt client id is required")
	}

	path, err := listPath(sourceURL)
	if err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s%s?limit=%d&page=1", f.apiURL, path, maxItems)

	f.logger.WithFields(logrus.Fields{
		"url":   sourceURL,
		"limit": maxItems,
	}).Debug("Fetching Trakt list items")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", creds.ClientID)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &providers.UpstreamError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providers.UpstreamError{URL: sourceURL, StatusCode: resp.StatusCode}
	}

	var entries []listEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &providers.ParseError{URL: sourceURL, Err: err}
	}

	items := make([]models.MediaItem, 0, len(entries))
	for _, entry := range entries {
		var title string
		var year int
		var tmdbID int64
		var kind models.MediaKind

		switch {
		case entry.Type == "movie" && entry.Movie != nil:
			title = entry.Movie.Title
			year = entry.Movie.Year
			tmdbID = entry.Movie.IDs.TMDB
			kind = models.MediaKindMovie
		case entry.Type == "show" && entry.Show != nil:
			title = entry.Show.Title
			year = entry.Show.Year
			tmdbID = entry.Show.IDs.TMDB
			kind = models.MediaKindTV
		default:
			continue
		}

		if tmdbID == 0 {
			f.logger.WithField("title", title).Debug("Skipping entry without TMDB id")
			continue
		}

		items = append(items, models.MediaItem{
			Title:  title,
			Year:   year,
			Kind:   kind,
			TMDBID: tmdbID,
		})

		if len(items) >= maxItems {
			break
		}
	}

	return items, nil
}
