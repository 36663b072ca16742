// Package memory keeps the most recent decoded batches in process so readers
// on other goroutines can consume them without touching the fetch path.
package memory

import (
	"context"
	"sync/atomic"

	"github.com/couchcryptid/swissmetnet-etl/internal/domain"
	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
)

type stationSnapshot struct {
	batch domain.StationBatch
	index map[string]int
}

// Store holds the latest station and measurement batches. Each Load replaces
// the previous snapshot atomically; readers always see a complete batch.
// Records are deep-copied on the way in and out, so neither producers nor
// readers can change a stored snapshot.
// It implements pipeline.Loader.
type Store struct {
	stations     atomic.Pointer[stationSnapshot]
	measurements atomic.Pointer[domain.MeasurementBatch]
	metrics      *observability.Metrics
}

// NewStore creates an empty Store.
func NewStore(metrics *observability.Metrics) *Store {
	return &Store{metrics: metrics}
}

func (s *Store) LoadStations(_ context.Context, batch domain.StationBatch) error {
	snap := &stationSnapshot{
		batch: domain.StationBatch{
			RunID:     batch.RunID,
			FetchedAt: batch.FetchedAt,
			Stations:  cloneAll(batch.Stations),
		},
		index: make(map[string]int, len(batch.Stations)),
	}
	for i, st := range snap.batch.Stations {
		if _, dup := snap.index[st.Abbreviation]; !dup {
			snap.index[st.Abbreviation] = i
		}
	}
	s.stations.Store(snap)

	s.metrics.SnapshotStations.Set(float64(len(snap.batch.Stations)))
	s.metrics.UnmatchedPoints.Set(float64(len(s.Unmatched())))
	return nil
}

func (s *Store) LoadMeasurements(_ context.Context, batch domain.MeasurementBatch) error {
	s.measurements.Store(&domain.MeasurementBatch{
		RunID:     batch.RunID,
		FetchedAt: batch.FetchedAt,
		Points:    cloneAll(batch.Points),
	})

	s.metrics.SnapshotMeasurements.Set(float64(len(batch.Points)))
	s.metrics.UnmatchedPoints.Set(float64(len(s.Unmatched())))
	return nil
}

// Stations returns a copy of the latest station batch. ok is false until the
// first batch has been loaded.
func (s *Store) Stations() (batch domain.StationBatch, ok bool) {
	snap := s.stations.Load()
	if snap == nil {
		return domain.StationBatch{}, false
	}
	b := snap.batch
	b.Stations = cloneAll(b.Stations)
	return b, true
}

// Measurements returns a copy of the latest measurement batch.
func (s *Store) Measurements() (batch domain.MeasurementBatch, ok bool) {
	b := s.measurements.Load()
	if b == nil {
		return domain.MeasurementBatch{}, false
	}
	out := *b
	out.Points = cloneAll(b.Points)
	return out, true
}

// Station looks up a station by abbreviation.
func (s *Store) Station(abbr string) (domain.MeasuringStation, bool) {
	snap := s.stations.Load()
	if snap == nil {
		return domain.MeasuringStation{}, false
	}
	i, ok := snap.index[abbr]
	if !ok {
		return domain.MeasuringStation{}, false
	}
	return snap.batch.Stations[i].Clone(), true
}

// Unmatched returns the abbreviations of measuring points in the latest
// snapshot that have no station in the latest station batch. Before any
// station batch is loaded every point is unmatched.
func (s *Store) Unmatched() []string {
	b := s.measurements.Load()
	if b == nil {
		return nil
	}
	var out []string
	for _, p := range b.Points {
		if _, ok := s.Station(p.Station); !ok {
			out = append(out, p.Station)
		}
	}
	return out
}

func cloneAll[T interface{ Clone() T }](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}
