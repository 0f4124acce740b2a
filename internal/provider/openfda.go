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

// ErrNotFound is returned when an upstream has no record for the query.
var ErrNotFound = errors.New("not found")

const drugLabelTTL = 24 * time.Hour

// DrugLabel is a summary of an openFDA drug label.
type DrugLabel struct {
	Name        string `json:"name"`
	Indications string `json:"indications"`
	Warnings    string `json:"warnings"`
	SideEffects string `json:"side_effects"`
}

type OpenFDAClient struct {
	baseURL    string
	cache      *cache.Cache
	logger     *zap.Logger
	httpClient *http.Client
}

func NewOpenFDAClient(baseURL string, c *cache.Cache, logger *zap.Logger) *OpenFDAClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenFDAClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   c,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type openFDAResponse struct {
	Results []struct {
		IndicationsAndUsage []string `json:"indications_and_usage"`
		Warnings            []string `json:"warnings"`
		AdverseReactions    []string `json:"adverse_reactions"`
	} `json:"results"`
}

// DrugLabel looks up a drug by generic name, serving from cache when
// possible.
func (c *OpenFDAClient) DrugLabel(ctx context.Context, name string) (*DrugLabel, error) {
	if c.baseURL == "" {
		return nil, diagnosis.ErrUnavailable
	}

	key := "fda:" + strings.ToLower(name)
	var cached DrugLabel
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn("drug label cache read failed", zap.String("drug", name), zap.Error(err))
	}

	q := url.Values{}
	q.Set("search", fmt.Sprintf("openfda.generic_name:%q", name))
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drug/label.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openfda request failed: %v", diagnosis.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("drug %q: %w", name, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: openfda API error: %s - %s", diagnosis.ErrUnavailable, resp.Status, string(body))
	}

	var out openFDAResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode openfda response: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, fmt.Errorf("drug %q: %w", name, ErrNotFound)
	}

	r := out.Results[0]
	label := &DrugLabel{
		Name:        name,
		Indications: first(r.IndicationsAndUsage),
		Warnings:    first(r.Warnings),
		SideEffects: first(r.AdverseReactions),
	}

	if err := c.cache.Set(ctx, key, label, drugLabelTTL); err != nil {
		c.logger.Warn("drug label cache write failed", zap.String("drug", name), zap.Error(err))
	}
	return label, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return "Informação não disponível"
	}
	return values[0]
}
