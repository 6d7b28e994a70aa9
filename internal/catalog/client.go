// Package catalog queries the publisher's paginated journal-search endpoint
// and yields the shop URLs fed into the fetch pipeline.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Filters narrows a catalog search. All fields are nullable; a nil field is
// serialized as JSON null, which the endpoint treats as "no constraint".
type Filters struct {
	AccessType   *string  `json:"accessType"`
	SubjectArea  *string  `json:"subjectArea"`
	CiteScoreMin *float64 `json:"citeScoreMin"`
	CiteScoreMax *float64 `json:"citeScoreMax"`
}

type searchRequest struct {
	Query   string  `json:"query"`
	Page    int     `json:"page"`
	Filters Filters `json:"filters"`
	Sort    string  `json:"sort"`
}

type searchResponse struct {
	SearchResponse struct {
		Items []struct {
			JournalLinks struct {
				ProductDetailPageURL string `json:"productDetailPageURL"`
			} `json:"journalLinks"`
			Titles struct {
				Primary string `json:"primary"`
			} `json:"titles"`
		} `json:"items"`
	} `json:"searchResponse"`
}

// Listing is one catalog entry: the shop detail URL plus its display title.
type Listing struct {
	URL   string
	Title string
}

// Client issues catalog searches. It talks JSON to an API endpoint, so it
// uses a plain http.Client rather than the page-oriented colly collector.
type Client struct {
	endpoint   string
	sort       string
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds a Client. A nil logger is replaced with a no-op one.
func New(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		sort:       "relevance",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search fetches one page of catalog results.
func (c *Client) Search(ctx context.Context, query string, page int) ([]Listing, error) {
	payload, err := json.Marshal(searchRequest{
		Query: query,
		Page:  page,
		Sort:  c.sort,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search page %d: %w", page, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close search response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page %d: unexpected status %d", page, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search page %d: %w", page, err)
	}

	listings := make([]Listing, 0, len(decoded.SearchResponse.Items))
	for _, item := range decoded.SearchResponse.Items {
		if item.JournalLinks.ProductDetailPageURL == "" {
			continue
		}
		listings = append(listings, Listing{
			URL:   item.JournalLinks.ProductDetailPageURL,
			Title: item.Titles.Primary,
		})
	}

	c.logger.Debug("catalog page fetched",
		zap.Int("page", page),
		zap.Int("listings", len(listings)),
		zap.Duration("latency", time.Since(start)),
	)
	return listings, nil
}
