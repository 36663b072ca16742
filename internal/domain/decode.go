package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// csvDelimiter separates fields in every MeteoSwiss CSV file.
const csvDelimiter = ';'

// DecodeStations returns a lazy sequence of stations read from a stations
// CSV payload whose footer has already been trimmed. The sequence reads r as
// it is consumed, stops after the first error, and cannot be replayed: once
// ranged over, even if the consumer stopped early, later ranges yield nothing.
// A row with more fields than the header is an error; a shorter row leaves its
// trailing columns absent.
func DecodeStations(r io.Reader) iter.Seq2[MeasuringStation, error] {
	return decode(r, stationColumns)
}

// DecodeMeasurements returns a lazy sequence of measuring points read from a
// measurements CSV payload. See DecodeStations for sequence semantics.
func DecodeMeasurements(r io.Reader) iter.Seq2[MeasuringPoint, error] {
	return decode(r, measurementColumns)
}

// Collect drains a decode sequence. It returns every record, or nil and the
// first error; rows decoded before the error are discarded.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func decode[T any](r io.Reader, columns []column[T]) iter.Seq2[T, error] {
	var consumed atomic.Bool
	return func(yield func(T, error) bool) {
		if consumed.Swap(true) {
			return
		}
		var zero T

		cr := csv.NewReader(r)
		cr.Comma = csvDelimiter
		cr.FieldsPerRecord = -1
		cr.LazyQuotes = true

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(zero, malformed(0, err))
			return
		}
		index := bindColumns(header, columns)

		for row := 1; ; row++ {
			fields, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(zero, malformed(row, err))
				return
			}
			line, _ := cr.FieldPos(0)
			if len(fields) > len(header) {
				reason := fmt.Sprintf("wrong number of fields: got %d, header has %d", len(fields), len(header))
				yield(zero, &DecodeError{Row: row, Line: line, Reason: reason})
				return
			}

			rec, err := decodeRow(fields, index, columns, row, line)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// bindColumns resolves each column to its position in the header, or -1 when
// the header does not carry it.
func bindColumns[T any](header []string, columns []column[T]) []int {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	index := make([]int, len(columns))
	for i, c := range columns {
		pos, ok := positions[c.name]
		if !ok {
			pos = -1
		}
		index[i] = pos
	}
	return index
}

func decodeRow[T any](fields []string, index []int, columns []column[T], row, line int) (T, error) {
	var rec T
	for i, c := range columns {
		raw, present := cell(fields, index[i])
		if !present && c.rule.required() {
			var zero T
			return zero, &DecodeError{Row: row, Line: line, Column: c.name, Reason: "missing value"}
		}

		switch c.rule {
		case requiredText:
			c.setText(&rec, raw)
		case requiredInt, optionalInt:
			v, err := parseInt(raw)
			if err != nil && c.rule == requiredInt {
				var zero T
				return zero, &DecodeError{Row: row, Line: line, Column: c.name, Reason: invalidReason("integer", raw, err), Err: err}
			}
			if err != nil {
				v = nil
			}
			c.setInt(&rec, v)
		case requiredFloat, optionalFloat:
			v, err := parseFloat(raw)
			if err != nil && c.rule == requiredFloat {
				var zero T
				return zero, &DecodeError{Row: row, Line: line, Column: c.name, Reason: invalidReason("number", raw, err), Err: err}
			}
			if err != nil {
				v = nil
			}
			c.setFloat(&rec, v)
		}
	}
	return rec, nil
}

// cell returns the field at pos. A column absent from the header or a row
// shorter than the header counts as not present.
func cell(fields []string, pos int) (string, bool) {
	if pos < 0 || pos >= len(fields) {
		return "", false
	}
	return fields[pos], true
}

var errEmpty = errors.New("empty value")

func invalidReason(kind, raw string, err error) string {
	if errors.Is(err, errEmpty) {
		return "missing value"
	}
	return "invalid " + kind + " " + strconv.Quote(raw)
}

func parseInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmpty
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, err
	}
	n := int(v)
	return &n, nil
}

func parseFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errEmpty
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New("not a finite number")
	}
	return &v, nil
}

func malformed(row int, err error) *DecodeError {
	de := &DecodeError{Row: row, Reason: "malformed csv", Err: err}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		de.Line = pe.Line
		de.Reason = pe.Err.Error()
	}
	return de
}
