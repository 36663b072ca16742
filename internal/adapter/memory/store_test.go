package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/swissmetnet-etl/internal/adapter/memory"
	"github.com/couchcryptid/swissmetnet-etl/internal/domain"
	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fetchedAt = time.Date(2024, 1, 1, 13, 50, 0, 0, time.UTC)

func stationBatch() domain.StationBatch {
	return domain.StationBatch{
		RunID:     "run-stations",
		FetchedAt: fetchedAt,
		Stations: []domain.MeasuringStation{
			{Name: "Zürich / Fluntern", Abbreviation: "SMA", Height: 556},
			{Name: "Bern / Zollikofen", Abbreviation: "BER", Height: 552},
		},
	}
}

func measurementBatch() domain.MeasurementBatch {
	return domain.MeasurementBatch{
		RunID:     "run-measurements",
		FetchedAt: fetchedAt,
		Points: []domain.MeasuringPoint{
			{Station: "SMA", Date: "202401011350"},
			{Station: "BER", Date: "202401011350"},
			{Station: "XYZ", Date: "202401011350"},
		},
	}
}

func TestStore_EmptyUntilLoaded(t *testing.T) {
	s := memory.NewStore(observability.NewMetricsForTesting())

	_, ok := s.Stations()
	assert.False(t, ok)
	_, ok = s.Measurements()
	assert.False(t, ok)
	_, ok = s.Station("SMA")
	assert.False(t, ok)
	assert.Empty(t, s.Unmatched())
}

func TestStore_CorrelatesByAbbreviation(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	s := memory.NewStore(metrics)
	ctx := context.Background()

	require.NoError(t, s.LoadMeasurements(ctx, measurementBatch()))
	assert.Equal(t, []string{"SMA", "BER", "XYZ"}, s.Unmatched(), "no stations known yet")

	require.NoError(t, s.LoadStations(ctx, stationBatch()))

	st, ok := s.Station("BER")
	require.True(t, ok)
	assert.Equal(t, "Bern / Zollikofen", st.Name)

	assert.Equal(t, []string{"XYZ"}, s.Unmatched())
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.UnmatchedPoints), 0)
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.SnapshotStations), 0)
	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.SnapshotMeasurements), 0)
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := memory.NewStore(observability.NewMetricsForTesting())
	ctx := context.Background()

	in := stationBatch()
	require.NoError(t, s.LoadStations(ctx, in))
	in.Stations[0].Name = "mutated by producer"

	out, ok := s.Stations()
	require.True(t, ok)
	assert.Equal(t, "Zürich / Fluntern", out.Stations[0].Name)
	assert.Equal(t, "run-stations", out.RunID)
	assert.Equal(t, fetchedAt, out.FetchedAt)

	out.Stations[0].Name = "mutated by consumer"
	again, _ := s.Stations()
	assert.Equal(t, "Zürich / Fluntern", again.Stations[0].Name)

	require.NoError(t, s.LoadMeasurements(ctx, measurementBatch()))
	mb, _ := s.Measurements()
	mb.Points[0].Station = "ZZZ"
	mb2, _ := s.Measurements()
	assert.Equal(t, "SMA", mb2.Points[0].Station)
}

func TestStore_CopiesReadings(t *testing.T) {
	s := memory.NewStore(observability.NewMetricsForTesting())
	ctx := context.Background()

	temp, baro := 5.2, 3
	require.NoError(t, s.LoadMeasurements(ctx, domain.MeasurementBatch{
		Points: []domain.MeasuringPoint{{Station: "SMA", Date: "202401011350", Temperature: &temp}},
	}))
	require.NoError(t, s.LoadStations(ctx, domain.StationBatch{
		Stations: []domain.MeasuringStation{{Abbreviation: "SMA", BarometricAltitude: &baro}},
	}))
	temp, baro = -40, 0

	mb, _ := s.Measurements()
	assert.InDelta(t, 5.2, *mb.Points[0].Temperature, 1e-9)
	*mb.Points[0].Temperature = 99

	again, _ := s.Measurements()
	assert.InDelta(t, 5.2, *again.Points[0].Temperature, 1e-9)

	st, ok := s.Station("SMA")
	require.True(t, ok)
	assert.Equal(t, 3, *st.BarometricAltitude)
	*st.BarometricAltitude = 7

	sb, _ := s.Stations()
	assert.Equal(t, 3, *sb.Stations[0].BarometricAltitude)
}

func TestStore_LatestBatchReplacesPrevious(t *testing.T) {
	s := memory.NewStore(observability.NewMetricsForTesting())
	ctx := context.Background()

	require.NoError(t, s.LoadStations(ctx, stationBatch()))
	require.NoError(t, s.LoadStations(ctx, domain.StationBatch{
		RunID:    "run-2",
		Stations: []domain.MeasuringStation{{Abbreviation: "SAE", Name: "Säntis"}},
	}))

	_, ok := s.Station("SMA")
	assert.False(t, ok)
	st, ok := s.Station("SAE")
	require.True(t, ok)
	assert.Equal(t, "Säntis", st.Name)
}

func TestStore_DuplicateAbbreviationKeepsFirst(t *testing.T) {
	s := memory.NewStore(observability.NewMetricsForTesting())
	require.NoError(t, s.LoadStations(context.Background(), domain.StationBatch{
		Stations: []domain.MeasuringStation{
			{Abbreviation: "SMA", Name: "first"},
			{Abbreviation: "SMA", Name: "second"},
		},
	}))

	st, ok := s.Station("SMA")
	require.True(t, ok)
	assert.Equal(t, "first", st.Name)
}

func TestStore_ConcurrentReadersSeeWholeBatches(t *testing.T) {
	s := memory.NewStore(observability.NewMetricsForTesting())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 100 {
			_ = s.LoadMeasurements(ctx, measurementBatch())
		}
	}()

	for range 100 {
		if b, ok := s.Measurements(); ok {
			assert.Len(t, b.Points, 3)
		}
	}
	wg.Wait()
}
