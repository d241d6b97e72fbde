package imdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/amaumene/listarr/internal/models"
	"github.com/amaumene/listarr/internal/providers"
	"github.com/sirupsen/logrus"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

var (
	titleIDPattern = regexp.MustCompile(`/title/(tt\d+)`)
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Fetcher scrapes IMDb chart pages and resolves entries to TMDB ids.
// IMDb has no API for charts, so this is the one fetcher that truncates
// after the fetch instead of passing a limit upstream.
type Fetcher struct {
	httpClient *http.Client
	tmdbURL    string
	logger     *logrus.Logger
}

// NewFetcher creates a new IMDb chart fetcher
func NewFetcher(logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tmdbURL:    tmdbBaseURL,
		logger:     logger,
	}
}

// Kind returns the provider kind this fetcher handles
func (f *Fetcher) Kind() models.ProviderKind {
	return models.ProviderIMDB
}

// chartRow is one scraped chart entry before TMDB resolution
type chartRow struct {
	imdbID string
	title  string
	year   int
}

// FetchItems scrapes the chart at sourceURL and resolves rows to TMDB ids.
// Rows that do not resolve are skipped: without a TMDB id the item cannot
// be requested downstream.
func (f *Fetcher) FetchItems(ctx context.Context, sourceURL string, maxItems int, creds providers.Credentials) ([]models.MediaItem, error) {
	if creds.APIKey == "" {
		return nil, fmt.Errorf("tmdb API key is required for imdb chart resolution")
	}

	rows, err := f.scrapeChart(ctx, sourceURL, maxItems)
	if err != nil {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"url":   sourceURL,
		"count": len(rows),
	}).Debug("Scraped IMDb chart rows")

	items := make([]models.MediaItem, 0, len(rows))
	for _, row := range rows {
		item, err := f.resolveTMDB(ctx, row, creds.APIKey)
		if err != nil {
			f.logger.WithError(err).WithField("imdb_id", row.imdbID).Warn("Failed to resolve TMDB id, skipping")
			continue
		}
		if item == nil {
			f.logger.WithField("imdb_id", row.imdbID).Debug("No TMDB match, skipping")
			continue
		}
		items = append(items, *item)
	}

	return items, nil
}

// scrapeChart downloads the chart page and extracts up to maxItems rows
func (f *Fetcher) scrapeChart(ctx context.Context, sourceURL string, maxItems int) ([]chartRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; listarr)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &providers.UpstreamError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providers.UpstreamError{URL: sourceURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &providers.ParseError{URL: sourceURL, Err: err}
	}

	var rows []chartRow
	seen := make(map[string]struct{})

	doc.Find("li.ipc-metadata-list-summary-item").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Find("a.ipc-title-link-wrapper").Attr("href")
		if !ok {
			return true
		}
		match := titleIDPattern.FindStringSubmatch(href)
		if match == nil {
			return true
		}
		imdbID := match[1]
		if _, dup := seen[imdbID]; dup {
			return true
		}

		title := strings.TrimSpace(sel.Find("h3.ipc-title__text").First().Text())
		// Chart titles carry a rank prefix like "1. The Shawshank Redemption"
		if idx := strings.Index(title, ". "); idx > 0 && idx < 5 {
			title = title[idx+2:]
		}
		if title == "" {
			return true
		}

		year := 0
		sel.Find("span.cli-title-metadata-item").EachWithBreak(func(_ int, meta *goquery.Selection) bool {
			if m := yearPattern.FindString(meta.Text()); m != "" {
				year, _ = strconv.Atoi(m)
				return false
			}
			return true
		})

		seen[imdbID] = struct{}{}
		rows = append(rows, chartRow{imdbID: imdbID, title: title, year: year})
		return len(rows) < maxItems
	})

	if len(rows) == 0 {
		return nil, &providers.ParseError{URL: sourceURL, Err: fmt.Errorf("no chart entries found")}
	}

	return rows, nil
}

// findResponse is the TMDB /find payload, trimmed to what we need
type findResponse struct {
	MovieResults []struct {
		ID int64 `json:"id"`
	} `json:"movie_results"`
	TVResults []struct {
		ID int64 `json:"id"`
	} `json:"tv_results"`
}

// resolveTMDB looks the scraped row up on TMDB by its IMDb id.
// Returns nil without error when TMDB has no match.
func (f *Fetcher) resolveTMDB(ctx context.Context, row chartRow, apiKey string) (*models.MediaItem, error) {
	findURL := fmt.Sprintf("%s/find/%s?api_key=%s&external_source=imdb_id",
		f.tmdbURL, row.imdbID, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, findURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &providers.UpstreamError{URL: f.tmdbURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providers.UpstreamError{URL: f.tmdbURL, StatusCode: resp.StatusCode}
	}

	var found findResponse
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return nil, &providers.ParseError{URL: f.tmdbURL, Err: err}
	}

	switch {
	case len(found.MovieResults) > 0:
		return &models.MediaItem{
			Title:  row.title,
			Year:   row.year,
			Kind:   models.MediaKindMovie,
			TMDBID: found.MovieResults[0].ID,
		}, nil
	case len(found.TVResults) > 0:
		return &models.MediaItem{
			Title:  row.title,
			Year:   row.year,
			Kind:   models.MediaKindTV,
			TMDBID: found.TVResults[0].ID,
		}, nil
	default:
		return nil, nil
	}
}
