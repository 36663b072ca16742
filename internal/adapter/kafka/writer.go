package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/swissmetnet-etl/internal/config"
	"github.com/couchcryptid/swissmetnet-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	recordTypeStation     = "station"
	recordTypeMeasurement = "measurement"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes decoded batches to Kafka, one message per record keyed by
// station abbreviation. It implements pipeline.Loader. Each batch write,
// retries included, is bounded by writeTimeout when it is positive.
type Writer struct {
	writer            messageWriter
	stationsTopic     string
	measurementsTopic string
	writeTimeout      time.Duration
	logger            *slog.Logger
}

// NewWriter creates a Kafka producer for the configured station and
// measurement topics.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:            w,
		stationsTopic:     cfg.KafkaStationsTopic,
		measurementsTopic: cfg.KafkaMeasurementsTopic,
		writeTimeout:      cfg.KafkaWriteTimeout,
		logger:            logger,
	}
}

// LoadStations publishes every station of the batch in a single WriteMessages call.
func (w *Writer) LoadStations(ctx context.Context, batch domain.StationBatch) error {
	if len(batch.Stations) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch.Stations))
	for i := range batch.Stations {
		s := &batch.Stations[i]
		msg, err := newMessage(w.stationsTopic, recordTypeStation, s.Abbreviation, batch.RunID, batch.FetchedAt, s)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.write(ctx, msgs); err != nil {
		return fmt.Errorf("write stations to %s: %w", w.stationsTopic, err)
	}
	w.logger.Debug("stations published", "topic", w.stationsTopic, "count", len(msgs), "run_id", batch.RunID)
	return nil
}

// LoadMeasurements publishes every measuring point of the batch in a single WriteMessages call.
func (w *Writer) LoadMeasurements(ctx context.Context, batch domain.MeasurementBatch) error {
	if len(batch.Points) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(batch.Points))
	for i := range batch.Points {
		p := &batch.Points[i]
		msg, err := newMessage(w.measurementsTopic, recordTypeMeasurement, p.Station, batch.RunID, batch.FetchedAt, p)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.write(ctx, msgs); err != nil {
		return fmt.Errorf("write measurements to %s: %w", w.measurementsTopic, err)
	}
	w.logger.Debug("measurements published", "topic", w.measurementsTopic, "count", len(msgs), "run_id", batch.RunID)
	return nil
}

func (w *Writer) write(ctx context.Context, msgs []kafkago.Message) error {
	if w.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.writeTimeout)
		defer cancel()
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// newMessage marshals a record into a Kafka message on topic.
func newMessage(topic, recordType, key, runID string, fetchedAt time.Time, record any) (kafkago.Message, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %q: %w", recordType, key, err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "record_type", Value: []byte(recordType)},
			{Key: "fetched_at", Value: []byte(fetchedAt.Format(time.RFC3339))},
			{Key: "run_id", Value: []byte(runID)},
		},
	}, nil
}
