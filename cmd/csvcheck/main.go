// Command csvcheck decodes a SwissMetNet stations or measurements CSV from a
// local file or an http(s) URL and prints a summary: record counts, coverage
// of every measurement parameter, and stations that cannot be correlated.
// On the first decode error it prints the row, line, and column and exits 1.
//
// Usage:
//
//	go run ./cmd/csvcheck -mode measurements testdata/VQHA80.csv
//	go run ./cmd/csvcheck -mode stations -trim 3 ch.meteoschweiz.messnetz-automatisch_en.csv
//	go run ./cmd/csvcheck -stations stations.csv https://data.geo.admin.ch/ch.meteoschweiz.messwerte-aktuell/VQHA80.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/swissmetnet-etl/internal/adapter/memory"
	"github.com/couchcryptid/swissmetnet-etl/internal/adapter/meteoswiss"
	"github.com/couchcryptid/swissmetnet-etl/internal/domain"
	"github.com/couchcryptid/swissmetnet-etl/internal/observability"
)

const (
	modeStations     = "stations"
	modeMeasurements = "measurements"
)

type options struct {
	mode     string
	trim     int
	stations string
	timeout  time.Duration
	source   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, observability.NewMetrics()))
}

func run(args []string, stdout, stderr io.Writer, metrics *observability.Metrics) int {
	fs := flag.NewFlagSet("csvcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.mode, "mode", modeMeasurements, "file kind: stations or measurements")
	fs.IntVar(&opts.trim, "trim", 3, "trailing footer lines to drop from a local stations file")
	fs.StringVar(&opts.stations, "stations", "", "optional stations file or URL to correlate measurements against")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP timeout for URL sources")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || (opts.mode != modeStations && opts.mode != modeMeasurements) {
		fs.Usage()
		return 2
	}
	opts.source = fs.Arg(0)

	c := &checker{
		opts:   opts,
		out:    stdout,
		client: meteoswiss.NewClient("", "", opts.timeout, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics),
		store:  memory.NewStore(metrics),
	}

	if err := c.check(context.Background()); err != nil {
		fmt.Fprintf(stderr, "FAIL: %s\n", describe(err))
		return 1
	}
	return 0
}

type checker struct {
	opts   options
	out    io.Writer
	client *meteoswiss.Client
	store  *memory.Store
}

func (c *checker) check(ctx context.Context) error {
	if c.opts.mode == modeStations {
		stations, err := c.loadStations(ctx, c.opts.source)
		if err != nil {
			return err
		}
		c.reportStations(stations)
		return nil
	}

	if c.opts.stations != "" {
		stations, err := c.loadStations(ctx, c.opts.stations)
		if err != nil {
			return fmt.Errorf("stations %s: %w", c.opts.stations, err)
		}
		if err := c.store.LoadStations(ctx, domain.StationBatch{Stations: stations}); err != nil {
			return err
		}
	}

	points, err := c.loadMeasurements(ctx, c.opts.source)
	if err != nil {
		return err
	}
	if err := c.store.LoadMeasurements(ctx, domain.MeasurementBatch{Points: points}); err != nil {
		return err
	}
	c.reportMeasurements(points)
	return nil
}

func (c *checker) loadStations(ctx context.Context, source string) ([]domain.MeasuringStation, error) {
	if isURL(source) {
		return c.client.FetchStations(ctx, source)
	}
	text, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	body := domain.TrimTrailingLines(string(text), c.opts.trim)
	return domain.Collect(domain.DecodeStations(strings.NewReader(body)))
}

func (c *checker) loadMeasurements(ctx context.Context, source string) ([]domain.MeasuringPoint, error) {
	if isURL(source) {
		return c.client.FetchMeasurements(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return domain.Collect(domain.DecodeMeasurements(f))
}

func (c *checker) reportStations(stations []domain.MeasuringStation) {
	withBaro := 0
	cantons := make(map[string]int)
	for _, s := range stations {
		if s.BarometricAltitude != nil {
			withBaro++
		}
		cantons[s.Canton]++
	}

	fmt.Fprintf(c.out, "stations:              %d\n", len(stations))
	fmt.Fprintf(c.out, "with barometer:        %d\n", withBaro)
	fmt.Fprintf(c.out, "cantons:               %d\n", len(cantons))
}

func (c *checker) reportMeasurements(points []domain.MeasuringPoint) {
	fmt.Fprintf(c.out, "measuring points:      %d\n", len(points))
	if len(points) == 0 {
		return
	}

	var latest time.Time
	for _, p := range points {
		if t, err := p.ObservedAt(); err == nil && t.After(latest) {
			latest = t
		}
	}
	if !latest.IsZero() {
		fmt.Fprintf(c.out, "latest observation:    %s\n", latest.Format(time.RFC3339))
	}

	readings := points[0].Readings()
	present := make([]int, len(readings))
	for _, p := range points {
		for i, r := range p.Readings() {
			if r.Value != nil {
				present[i]++
			}
		}
	}

	fmt.Fprintln(c.out, "parameter coverage:")
	for i, r := range readings {
		pct := 100 * float64(present[i]) / float64(len(points))
		fmt.Fprintf(c.out, "  %-10s %5d/%d  %5.1f%%\n", r.Code, present[i], len(points), pct)
	}

	if c.opts.stations == "" {
		return
	}
	unmatched := c.store.Unmatched()
	fmt.Fprintf(c.out, "unmatched stations:    %d\n", len(unmatched))
	for _, abbr := range unmatched {
		fmt.Fprintf(c.out, "  %s\n", abbr)
	}
}

// describe renders err with decode position details when available.
func describe(err error) string {
	var de *domain.DecodeError
	if errors.As(err, &de) {
		col := de.Column
		if col == "" {
			col = "-"
		}
		return fmt.Sprintf("row %d (line %d) column %s: %s", de.Row, de.Line, col, de.Reason)
	}
	return err.Error()
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
