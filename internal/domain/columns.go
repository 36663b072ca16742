package domain

// coercion is the rule the decoder applies to a cell before assigning it.
type coercion int

const (
	requiredText coercion = iota
	requiredInt
	requiredFloat
	optionalInt
	optionalFloat
)

func (c coercion) required() bool {
	return c == requiredText || c == requiredInt || c == requiredFloat
}

// column maps one CSV header name onto a record field. Exactly one setter is
// set, matching the rule.
type column[T any] struct {
	name     string
	rule     coercion
	setText  func(*T, string)
	setInt   func(*T, *int)
	setFloat func(*T, *float64)
}

func textColumn[T any](name string, set func(*T, string)) column[T] {
	return column[T]{name: name, rule: requiredText, setText: set}
}

func intColumn[T any](name string, rule coercion, set func(*T, *int)) column[T] {
	return column[T]{name: name, rule: rule, setInt: set}
}

func floatColumn[T any](name string, rule coercion, set func(*T, *float64)) column[T] {
	return column[T]{name: name, rule: rule, setFloat: set}
}

var stationColumns = []column[MeasuringStation]{
	textColumn("Station", func(s *MeasuringStation, v string) { s.Name = v }),
	textColumn("Abbr.", func(s *MeasuringStation, v string) { s.Abbreviation = v }),
	textColumn("Station type", func(s *MeasuringStation, v string) { s.StationType = v }),
	intColumn("Station height m. a. sea level", requiredInt, func(s *MeasuringStation, v *int) { s.Height = *v }),
	intColumn("Barometric altitude m. a. ground", optionalInt, func(s *MeasuringStation, v *int) { s.BarometricAltitude = v }),
	floatColumn("Latitude", requiredFloat, func(s *MeasuringStation, v *float64) { s.Latitude = *v }),
	floatColumn("Longitude", requiredFloat, func(s *MeasuringStation, v *float64) { s.Longitude = *v }),
	textColumn("Canton", func(s *MeasuringStation, v string) { s.Canton = v }),
	textColumn("Measurements", func(s *MeasuringStation, v string) { s.Measurements = v }),
}

var measurementColumns = []column[MeasuringPoint]{
	textColumn("Station/Location", func(p *MeasuringPoint, v string) { p.Station = v }),
	textColumn("Date", func(p *MeasuringPoint, v string) { p.Date = v }),
	floatColumn(ParamTemperature, optionalFloat, func(p *MeasuringPoint, v *float64) { p.Temperature = v }),
	floatColumn(ParamPrecipitation, optionalFloat, func(p *MeasuringPoint, v *float64) { p.Precipitation = v }),
	floatColumn(ParamSunshine, optionalFloat, func(p *MeasuringPoint, v *float64) { p.Sunshine = v }),
	floatColumn(ParamRadiation, optionalFloat, func(p *MeasuringPoint, v *float64) { p.Radiation = v }),
	floatColumn(ParamHumidity, optionalFloat, func(p *MeasuringPoint, v *float64) { p.Humidity = v }),
	floatColumn(ParamDewPoint, optionalFloat, func(p *MeasuringPoint, v *float64) { p.DewPoint = v }),
	floatColumn(ParamWindDirection, optionalFloat, func(p *MeasuringPoint, v *float64) { p.WindDirection = v }),
	floatColumn(ParamWindSpeed, optionalFloat, func(p *MeasuringPoint, v *float64) { p.WindSpeed = v }),
	floatColumn(ParamWindGustPeak, optionalFloat, func(p *MeasuringPoint, v *float64) { p.WindGustPeak = v }),
	floatColumn(ParamPressure, optionalFloat, func(p *MeasuringPoint, v *float64) { p.Pressure = v }),
	floatColumn(ParamPressureSeaLevel, optionalFloat, func(p *MeasuringPoint, v *float64) { p.PressureSeaLevel = v }),
}
