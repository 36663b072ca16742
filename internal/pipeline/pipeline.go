package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/swissmetnet-etl/internal/domain"
	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	resourceStations     = "stations"
	resourceMeasurements = "measurements"
)

// Fetcher retrieves and decodes the two SwissMetNet resources.
type Fetcher interface {
	Stations(ctx context.Context) ([]domain.MeasuringStation, error)
	Measurements(ctx context.Context) ([]domain.MeasuringPoint, error)
}

// Loader receives every successfully decoded batch.
type Loader interface {
	LoadStations(ctx context.Context, batch domain.StationBatch) error
	LoadMeasurements(ctx context.Context, batch domain.MeasurementBatch) error
}

// Pipeline runs one fetch-decode-load cycle per scheduler tick.
type Pipeline struct {
	fetcher        Fetcher
	loaders        []Loader
	clock          clockwork.Clock
	logger         *slog.Logger
	metrics        *observability.Metrics
	stationsMaxAge time.Duration
	ready          atomic.Bool

	mu     sync.Mutex
	status map[string]*domain.RefreshStatus
}

// New creates a Pipeline. Stations are refreshed on a tick whenever the last
// successful station refresh is older than stationsMaxAge.
func New(f Fetcher, loaders []Loader, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, stationsMaxAge time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:        f,
		loaders:        loaders,
		clock:          clock,
		logger:         logger,
		metrics:        metrics,
		stationsMaxAge: stationsMaxAge,
		status: map[string]*domain.RefreshStatus{
			resourceStations:     {Resource: resourceStations},
			resourceMeasurements: {Resource: resourceMeasurements},
		},
	}
}

// CheckReadiness returns nil once a measurement refresh has succeeded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no measurements refreshed yet")
	}
	return nil
}

// Tick is the scheduler job. A failed station refresh does not prevent the
// measurement refresh; both failures are returned.
func (p *Pipeline) Tick(ctx context.Context) error {
	var stationsErr error
	if p.stationsStale() {
		stationsErr = p.RefreshStations(ctx)
	}
	return errors.Join(stationsErr, p.RefreshMeasurements(ctx))
}

func (p *Pipeline) stationsStale() bool {
	p.mu.Lock()
	last := p.status[resourceStations].LastSuccess
	p.mu.Unlock()
	return last.IsZero() || p.clock.Since(last) >= p.stationsMaxAge
}

// RefreshStations fetches station metadata and hands it to every loader.
func (p *Pipeline) RefreshStations(ctx context.Context) error {
	runID := uuid.NewString()
	p.attempt(resourceStations, runID)

	stations, err := p.fetcher.Stations(ctx)
	if err != nil {
		p.logFetchError(resourceStations, runID, err)
		p.fail(resourceStations, err)
		return err
	}

	batch := domain.StationBatch{RunID: runID, FetchedAt: p.clock.Now(), Stations: stations}
	if err := p.load(func(l Loader) error { return l.LoadStations(ctx, batch) }); err != nil {
		p.logger.Error("load stations failed", "run_id", runID, "error", err)
		p.fail(resourceStations, err)
		return fmt.Errorf("load stations: %w", err)
	}

	p.succeed(resourceStations, batch.FetchedAt, len(stations))
	p.logger.Info("stations refreshed", "run_id", runID, "count", len(stations))
	return nil
}

// RefreshMeasurements fetches the latest measurements and hands them to every loader.
func (p *Pipeline) RefreshMeasurements(ctx context.Context) error {
	runID := uuid.NewString()
	p.attempt(resourceMeasurements, runID)

	points, err := p.fetcher.Measurements(ctx)
	if err != nil {
		p.logFetchError(resourceMeasurements, runID, err)
		p.fail(resourceMeasurements, err)
		return err
	}

	batch := domain.MeasurementBatch{RunID: runID, FetchedAt: p.clock.Now(), Points: points}
	if err := p.load(func(l Loader) error { return l.LoadMeasurements(ctx, batch) }); err != nil {
		p.logger.Error("load measurements failed", "run_id", runID, "error", err)
		p.fail(resourceMeasurements, err)
		return fmt.Errorf("load measurements: %w", err)
	}

	p.succeed(resourceMeasurements, batch.FetchedAt, len(points))
	p.ready.Store(true)

	attrs := []any{"run_id", runID, "count", len(points)}
	if observed, ok := latestObservation(points); ok {
		attrs = append(attrs, "observed_at", observed)
	}
	p.logger.Info("measurements refreshed", attrs...)
	return nil
}

// Status returns a copy of the refresh status of both resources.
func (p *Pipeline) Status() []domain.RefreshStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return []domain.RefreshStatus{
		*p.status[resourceStations],
		*p.status[resourceMeasurements],
	}
}

// load offers the batch to every loader, even after one fails.
func (p *Pipeline) load(fn func(Loader) error) error {
	var errs []error
	for _, l := range p.loaders {
		if err := fn(l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) attempt(resource, runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.status[resource]
	st.LastAttempt = p.clock.Now()
	st.RunID = runID
}

func (p *Pipeline) fail(resource string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[resource].LastError = err.Error()
}

func (p *Pipeline) succeed(resource string, at time.Time, records int) {
	p.mu.Lock()
	st := p.status[resource]
	st.LastSuccess = at
	st.Records = records
	st.LastError = ""
	p.mu.Unlock()

	p.metrics.LastRefresh.WithLabelValues(resource).Set(float64(at.Unix()))
}

// logFetchError logs err with whatever structure the fetch client attached.
func (p *Pipeline) logFetchError(resource, runID string, err error) {
	attrs := []any{"resource", resource, "run_id", runID, "error", err}

	var fe *domain.FetchError
	if errors.As(err, &fe) {
		attrs = append(attrs, "kind", string(fe.Kind), "url", fe.URL)
		if fe.Kind == domain.FetchStatus {
			attrs = append(attrs, "status_code", fe.StatusCode)
		}
	}
	var de *domain.DecodeError
	if errors.As(err, &de) {
		attrs = append(attrs, "row", de.Row, "line", de.Line, "column", de.Column)
	}

	p.logger.Error("fetch failed", attrs...)
}

// latestObservation returns the most recent measurement date in points.
// Unparseable dates are ignored.
func latestObservation(points []domain.MeasuringPoint) (time.Time, bool) {
	var latest time.Time
	for _, pt := range points {
		t, err := pt.ObservedAt()
		if err != nil {
			continue
		}
		if t.After(latest) {
			latest = t
		}
	}
	return latest, !latest.IsZero()
}
