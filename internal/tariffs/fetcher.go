package tariffs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public WB common API host.
const DefaultBaseURL = "https://common-api.wildberries.ru"

// NewHTTPClient returns the standard client used for snapshot fetches.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{},
	}
}

// Fetcher retrieves the box-tariff snapshot for the current calendar date.
type Fetcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *zap.Logger

	// now supplies the date used in the request; overridable for tests.
	now func() time.Time
}

func NewFetcher(baseURL, apiKey string, log *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		client:  NewHTTPClient(30 * time.Second),
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
		now:     time.Now,
	}
}

// WithClock replaces the date source; tests use this to pin the snapshot date.
func (f *Fetcher) WithClock(now func() time.Time) *Fetcher {
	f.now = now
	return f
}

// snapshotEnvelope mirrors the nesting of the WB response body; the warehouse
// list sits at response.data.warehouseList.
type snapshotEnvelope struct {
	Response struct {
		Data struct {
			WarehouseList []Observation `json:"warehouseList"`
		} `json:"data"`
	} `json:"response"`
}

// Fetch performs one GET against the box-tariffs endpoint for today's date
// and returns the per-warehouse observations. Any failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context) ([]Observation, error) {
	date := f.now().Format("2006-01-02")
	u := fmt.Sprintf("%s/api/v1/tariffs/box?date=%s", f.baseURL, url.QueryEscape(date))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Status: resp.StatusCode}
	}

	var env snapshotEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode payload: %w", err)}
	}

	list := env.Response.Data.WarehouseList
	f.log.Debug("fetched tariff snapshot",
		zap.String("date", date),
		zap.Int("warehouses", len(list)))
	return list, nil
}
