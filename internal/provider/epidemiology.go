package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediassist/internal/cache"
	"mediassist/internal/diagnosis"
)

const casesTTL = time.Hour

// EpidemiologyClient reads recent case counts per UF from an open health
// data API.
type EpidemiologyClient struct {
	baseURL    string
	cache      *cache.Cache
	logger     *zap.Logger
	httpClient *http.Client
}

func NewEpidemiologyClient(baseURL string, c *cache.Cache, logger *zap.Logger) *EpidemiologyClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EpidemiologyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   c,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type casesResponse struct {
	Casos []struct {
		UF    string `json:"uf"`
		Casos int    `json:"casos"`
	} `json:"casos"`
}

// RecentCases sums the recent cases reported for uf.
func (c *EpidemiologyClient) RecentCases(ctx context.Context, uf string) (int, error) {
	if c.baseURL == "" {
		return 0, diagnosis.ErrUnavailable
	}
	uf = strings.ToUpper(uf)

	key := "epi:" + uf
	var cached int
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("case count cache read failed", zap.String("uf", uf), zap.Error(err))
	}

	q := url.Values{}
	q.Set("uf", uf)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/casos?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: epidemiology request failed: %v", diagnosis.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: epidemiology API error: %s - %s", diagnosis.ErrUnavailable, resp.Status, string(body))
	}

	var out casesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode epidemiology response: %w", err)
	}

	total := 0
	for _, d := range out.Casos {
		if strings.EqualFold(d.UF, uf) {
			total += d.Casos
		}
	}

	if err := c.cache.Set(ctx, key, total, casesTTL); err != nil {
		c.logger.Warn("case count cache write failed", zap.String("uf", uf), zap.Error(err))
	}
	return total, nil
}
