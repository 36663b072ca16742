// Package domain models SwissMetNet data published by MeteoSwiss.
//
// # Data Source
//
// MeteoSwiss publishes two open-data CSV files on data.geo.admin.ch:
//
//	ch.meteoschweiz.messnetz-automatisch_en.csv  station metadata
//	VQHA80.csv                                   latest 10-minute measurements
//
// Both are semicolon-delimited with a header line. Columns are matched by
// header name, never by position, because MeteoSwiss reorders and appends
// columns between releases.
//
// The stations file ends with a three-line footer (blank line, source note,
// licence note) that is not CSV data. [TrimTrailingLines] removes it before
// decoding.
//
// # Measurement Conventions
//
// Parameter codes follow the MeteoSwiss naming scheme: a 3-letter quantity,
// a height or level code, and an aggregation suffix ("s0" current value,
// "z0" 10-minute total or mean, "z1" 10-minute maximum). For example
// "tre200s0" is air temperature 2 m above ground, current value.
//
// Missing values:
//
//	Stations without a given sensor leave the cell empty. Invalid readings
//	are published as "-". Both decode to a nil pointer, which is distinct
//	from a measured zero.
//
// Date format:
//
//	"yyyyMMddHHmm" in UTC, e.g. "202401011350". The decoder keeps it as an
//	opaque token; [MeasuringPoint.ObservedAt] parses it on demand.
//
// # Correlation
//
// MeasuringPoint.Station holds the station abbreviation ("SMA", "BER", ...)
// and joins to MeasuringStation.Abbreviation.
package domain
