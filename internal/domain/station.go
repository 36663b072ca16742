package domain

import "time"

// MeasuringStation is one row of the SwissMetNet station metadata file.
type MeasuringStation struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	StationType  string `json:"station_type"`
	Height       int    `json:"height"` // metres above sea level

	// BarometricAltitude is nil for stations without a barometer.
	BarometricAltitude *int `json:"barometric_altitude,omitempty"` // metres above ground

	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Canton       string  `json:"canton"`
	Measurements string  `json:"measurements"`
}

// Clone returns a copy of s that shares no pointer field with it.
func (s MeasuringStation) Clone() MeasuringStation {
	s.BarometricAltitude = clonePtr(s.BarometricAltitude)
	return s
}

// StationBatch is the decoded result of one stations fetch.
type StationBatch struct {
	RunID     string
	FetchedAt time.Time
	Stations  []MeasuringStation
}
