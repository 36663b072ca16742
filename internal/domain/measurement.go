package domain

import (
	"fmt"
	"time"
)

// MeteoSwiss parameter codes used as measurement CSV column names.
const (
	ParamTemperature      = "tre200s0" // °C, 2 m above ground, current value
	ParamPrecipitation    = "rre150z0" // mm, 10 min total
	ParamSunshine         = "sre000z0" // min, 10 min total
	ParamRadiation        = "gre000z0" // W/m², 10 min mean
	ParamHumidity         = "ure200s0" // %, 2 m above ground, current value
	ParamDewPoint         = "tde200s0" // °C, 2 m above ground, current value
	ParamWindDirection    = "dkl010z0" // °, 10 min mean
	ParamWindSpeed        = "fu3010z0" // km/h, 10 min mean
	ParamWindGustPeak     = "fu3010z1" // km/h, one-second gust maximum
	ParamPressure         = "prestas0" // hPa, station level, current value
	ParamPressureSeaLevel = "pp0qffs0" // hPa, reduced to sea level (QFF), current value
)

// dateLayout is the Go layout for the "yyyyMMddHHmm" measurement date token.
const dateLayout = "200601021504"

// MeasuringPoint holds the readings of one station at one timestamp.
// Every sensor reading is optional: nil means the sensor is not installed
// or the value was published as invalid.
type MeasuringPoint struct {
	Station string `json:"station"`
	Date    string `json:"date"`

	Temperature      *float64 `json:"temperature,omitempty"`
	Precipitation    *float64 `json:"precipitation,omitempty"`
	Sunshine         *float64 `json:"sunshine,omitempty"`
	Radiation        *float64 `json:"radiation,omitempty"`
	Humidity         *float64 `json:"humidity,omitempty"`
	DewPoint         *float64 `json:"dew_point,omitempty"`
	WindDirection    *float64 `json:"wind_direction,omitempty"`
	WindSpeed        *float64 `json:"wind_speed,omitempty"`
	WindGustPeak     *float64 `json:"wind_gust_peak,omitempty"`
	Pressure         *float64 `json:"pressure,omitempty"`
	PressureSeaLevel *float64 `json:"pressure_sea_level,omitempty"`
}

// Reading pairs a parameter code with its optional value.
type Reading struct {
	Code  string
	Value *float64
}

// Readings lists the sensor readings of the point in column order.
func (p MeasuringPoint) Readings() []Reading {
	return []Reading{
		{ParamTemperature, p.Temperature},
		{ParamPrecipitation, p.Precipitation},
		{ParamSunshine, p.Sunshine},
		{ParamRadiation, p.Radiation},
		{ParamHumidity, p.Humidity},
		{ParamDewPoint, p.DewPoint},
		{ParamWindDirection, p.WindDirection},
		{ParamWindSpeed, p.WindSpeed},
		{ParamWindGustPeak, p.WindGustPeak},
		{ParamPressure, p.Pressure},
		{ParamPressureSeaLevel, p.PressureSeaLevel},
	}
}

// Clone returns a copy of p that shares no reading with it.
func (p MeasuringPoint) Clone() MeasuringPoint {
	p.Temperature = clonePtr(p.Temperature)
	p.Precipitation = clonePtr(p.Precipitation)
	p.Sunshine = clonePtr(p.Sunshine)
	p.Radiation = clonePtr(p.Radiation)
	p.Humidity = clonePtr(p.Humidity)
	p.DewPoint = clonePtr(p.DewPoint)
	p.WindDirection = clonePtr(p.WindDirection)
	p.WindSpeed = clonePtr(p.WindSpeed)
	p.WindGustPeak = clonePtr(p.WindGustPeak)
	p.Pressure = clonePtr(p.Pressure)
	p.PressureSeaLevel = clonePtr(p.PressureSeaLevel)
	return p
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ObservedAt parses the date token as a UTC timestamp.
func (p MeasuringPoint) ObservedAt() (time.Time, error) {
	t, err := time.Parse(dateLayout, p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse measurement date %q: %w", p.Date, err)
	}
	return t, nil
}

// MeasurementBatch is the decoded result of one measurements fetch.
type MeasurementBatch struct {
	RunID     string
	FetchedAt time.Time
	Points    []MeasuringPoint
}
