package meteoswiss

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/swissmetnet-etl/internal/domain"
	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
)

const (
	resourceStations     = "stations"
	resourceMeasurements = "measurements"

	// stationFooterLines is the number of non-CSV lines closing the stations file.
	stationFooterLines = 3
)

// Client fetches SwissMetNet CSV files and decodes them into domain records.
// It never retries; callers decide what a failed fetch means.
type Client struct {
	httpClient      *http.Client
	stationsURL     string
	measurementsURL string
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// NewClient creates a MeteoSwiss client for the given endpoints. The timeout
// bounds each request including the body download.
func NewClient(stationsURL, measurementsURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stationsURL:     stationsURL,
		measurementsURL: measurementsURL,
		logger:          logger,
		metrics:         metrics,
	}
}

// Stations fetches the configured station metadata endpoint.
func (c *Client) Stations(ctx context.Context) ([]domain.MeasuringStation, error) {
	return c.FetchStations(ctx, c.stationsURL)
}

// Measurements fetches the configured measurements endpoint.
func (c *Client) Measurements(ctx context.Context) ([]domain.MeasuringPoint, error) {
	return c.FetchMeasurements(ctx, c.measurementsURL)
}

// FetchStations downloads a stations CSV from url, strips its footer, and
// decodes every row.
func (c *Client) FetchStations(ctx context.Context, url string) ([]domain.MeasuringStation, error) {
	start := time.Now()
	defer c.observe(resourceStations, start)

	body, err := c.get(ctx, resourceStations, url)
	if err != nil {
		return nil, err
	}

	body = domain.TrimTrailingLines(body, stationFooterLines)
	stations, err := domain.Collect(domain.DecodeStations(strings.NewReader(body)))
	if err != nil {
		return nil, c.fail(resourceStations, &domain.FetchError{Kind: domain.FetchDecode, URL: url, Err: err})
	}

	c.metrics.RecordsDecoded.WithLabelValues(resourceStations).Add(float64(len(stations)))
	c.logger.Debug("stations fetched", "url", url, "count", len(stations))
	return stations, nil
}

// FetchMeasurements downloads a measurements CSV from url and decodes every row.
func (c *Client) FetchMeasurements(ctx context.Context, url string) ([]domain.MeasuringPoint, error) {
	start := time.Now()
	defer c.observe(resourceMeasurements, start)

	body, err := c.get(ctx, resourceMeasurements, url)
	if err != nil {
		return nil, err
	}

	points, err := domain.Collect(domain.DecodeMeasurements(strings.NewReader(body)))
	if err != nil {
		return nil, c.fail(resourceMeasurements, &domain.FetchError{Kind: domain.FetchDecode, URL: url, Err: err})
	}

	c.metrics.RecordsDecoded.WithLabelValues(resourceMeasurements).Add(float64(len(points)))
	c.logger.Debug("measurements fetched", "url", url, "count", len(points))
	return points, nil
}

// get performs the GET and returns the body of a 2xx response. Non-2xx bodies
// are drained and discarded without being read as CSV.
func (c *Client) get(ctx context.Context, resource, url string) (string, error) {
	c.metrics.FetchRequests.WithLabelValues(resource).Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", c.fail(resource, &domain.FetchError{Kind: domain.FetchTransport, URL: url, Err: fmt.Errorf("create request: %w", err)})
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", c.fail(resource, &domain.FetchError{Kind: domain.FetchTransport, URL: url, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", c.fail(resource, &domain.FetchError{Kind: domain.FetchStatus, URL: url, StatusCode: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.fail(resource, &domain.FetchError{Kind: domain.FetchTransport, URL: url, Err: fmt.Errorf("read body: %w", err)})
	}
	return string(body), nil
}

func (c *Client) fail(resource string, err *domain.FetchError) error {
	c.metrics.FetchErrors.WithLabelValues(resource, string(err.Kind)).Inc()
	return err
}

func (c *Client) observe(resource string, start time.Time) {
	c.metrics.FetchDuration.WithLabelValues(resource).Observe(time.Since(start).Seconds())
}
