package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amaumene/listarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Client handles communication with an Overseerr-compatible request service
type Client struct {
	baseURL    string
	apiKey     string
	userID     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new Overseerr client
func NewClient(baseURL, apiKey, userID string, logger *logrus.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("overseerr URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("overseerr API key is required")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		userID:     userID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// FailedItem pairs a rejected item with the upstream reason
type FailedItem struct {
	Item   models.MediaItem
	Reason string
}

// RequestResult partitions a submission into per-item outcomes
type RequestResult struct {
	Succeeded []models.MediaItem
	Failed    []FailedItem
}

// requestBody is the POST /api/v1/request payload
type requestBody struct {
	MediaType string `json:"mediaType"`
	MediaID   int64  `json:"mediaId"`
	Seasons   []int  `json:"seasons,omitempty"`
}

// requestResponse is the trimmed response payload
type requestResponse struct {
	ID    int64 `json:"id"`
	Media struct {
		TMDBID int64 `json:"tmdbId"`
	} `json:"media"`
	Message string `json:"message"`
}

// RequestItems submits every item, one POST per item so outcomes correlate
// per item. One bad item never aborts the rest; per-item failures are data,
// not errors, and are expected to be retried on the next scheduled run.
func (c *Client) RequestItems(ctx context.Context, items []models.MediaItem) *RequestResult {
	result := &RequestResult{}

	for _, item := range items {
		if err := c.requestItem(ctx, item); err != nil {
			c.logger.WithFields(logrus.Fields{
				"title":   item.Title,
				"tmdb_id": item.TMDBID,
			}).WithError(err).Warn("Request rejected")
			result.Failed = append(result.Failed, FailedItem{Item: item, Reason: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, item)
	}

	return result
}

// requestItem submits one item and classifies the outcome.
// nil means the item counts as requested and must be cached.
func (c *Client) requestItem(ctx context.Context, item models.MediaItem) error {
	body := requestBody{
		MediaType: string(item.Kind),
		MediaID:   item.TMDBID,
	}
	if item.Kind == models.MediaKindTV {
		body.Seasons = []int{1}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/request", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if c.userID != "" {
		req.Header.Set("X-Api-User", c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var parsed requestResponse
		if err := json.Unmarshal(bodyBytes, &parsed); err == nil {
			if parsed.Media.TMDBID != 0 && parsed.Media.TMDBID != item.TMDBID {
				return fmt.Errorf("response echoed tmdb id %d for requested %d", parsed.Media.TMDBID, item.TMDBID)
			}
		}
		return nil
	}

	message := upstreamMessage(bodyBytes, resp.StatusCode)

	// Accepted but nothing actionable (every season already covered):
	// counts as success so the item is cached and never retried.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
		strings.Contains(strings.ToLower(message), "no seasons available") {
		return nil
	}

	// The downstream already knows this media: idempotent against its own
	// state, so it is cached and never retried.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && isAlreadyRequested(message) {
		c.logger.WithFields(logrus.Fields{
			"title":   item.Title,
			"tmdb_id": item.TMDBID,
		}).Debug("Already requested downstream, treating as success")
		return nil
	}

	return fmt.Errorf("%s", message)
}

// isAlreadyRequested detects the downstream's duplicate-request rejection
func isAlreadyRequested(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "already") &&
		(strings.Contains(lower, "request") || strings.Contains(lower, "exist") || strings.Contains(lower, "available"))
}

// upstreamMessage extracts the human-readable message from an error payload
func upstreamMessage(body []byte, statusCode int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("request failed with status %d", statusCode)
}
