package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasuringPoint_ObservedAt(t *testing.T) {
	at, err := MeasuringPoint{Date: "202401011350"}.ObservedAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 1, 13, 50, 0, 0, time.UTC), at)

	_, err = MeasuringPoint{Date: "2024-01-01"}.ObservedAt()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse measurement date")
}

func TestMeasuringPoint_Readings(t *testing.T) {
	temp := 4.5
	gust := 31.0
	p := MeasuringPoint{Temperature: &temp, WindGustPeak: &gust}

	readings := p.Readings()
	require.Len(t, readings, len(measurementColumns)-2, "one reading per sensor column")

	present := map[string]float64{}
	for _, r := range readings {
		if r.Value != nil {
			present[r.Code] = *r.Value
		}
	}
	assert.Equal(t, map[string]float64{ParamTemperature: 4.5, ParamWindGustPeak: 31.0}, present)

	for i, r := range readings {
		assert.Equal(t, measurementColumns[i+2].name, r.Code, "readings follow column order")
	}
}

func TestMeasuringPoint_Clone(t *testing.T) {
	temp, gust := 4.5, 31.0
	p := MeasuringPoint{Station: "SMA", Temperature: &temp, WindGustPeak: &gust}

	c := p.Clone()
	assert.Equal(t, p, c)
	*c.Temperature = -1
	*c.WindGustPeak = -1

	assert.InDelta(t, 4.5, *p.Temperature, 0)
	assert.InDelta(t, 31.0, *p.WindGustPeak, 0)
	assert.Nil(t, c.Humidity)
}

func TestMeasuringStation_Clone(t *testing.T) {
	baro := 3
	s := MeasuringStation{Abbreviation: "SMA", BarometricAltitude: &baro}

	c := s.Clone()
	*c.BarometricAltitude = 99
	assert.Equal(t, 3, *s.BarometricAltitude)
	assert.Nil(t, MeasuringStation{}.Clone().BarometricAltitude)
}

func TestFetchError(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		err := &FetchError{Kind: FetchStatus, URL: "http://x/VQHA80.csv", StatusCode: 500}
		assert.Equal(t, "fetch http://x/VQHA80.csv: unexpected status 500", err.Error())
		assert.Equal(t, FetchStatus, FetchErrorKindOf(err))
	})

	t.Run("decode unwraps to DecodeError", func(t *testing.T) {
		de := &DecodeError{Row: 2, Line: 3, Column: "Latitude", Reason: "missing value"}
		var err error = &FetchError{Kind: FetchDecode, URL: "u", Err: de}

		var got *DecodeError
		require.ErrorAs(t, err, &got)
		assert.Equal(t, "Latitude", got.Column)
		assert.Contains(t, err.Error(), `decode row 2 (line 3) column "Latitude": missing value`)
	})

	t.Run("unknown kind", func(t *testing.T) {
		assert.Equal(t, FetchErrorKind("unknown"), FetchErrorKindOf(errors.New("boom")))
	})
}
