package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rodovia-segura/radar-priority-etl/internal/config"
	"github.com/rodovia-segura/radar-priority-etl/internal/scoring"
)

// Writer publishes scored catalogues to the sink topic.
// It implements pipeline.CatalogueLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadCatalogue publishes every segment of the catalogue as its own message,
// keyed by segment ID so compacted topics retain the latest score per
// segment, in a single WriteMessages call for efficiency.
func (w *Writer) LoadCatalogue(ctx context.Context, catalogue scoring.Catalogue) error {
	if len(catalogue.Segments) == 0 {
		w.logger.Debug("empty catalogue, nothing to publish", "build_id", catalogue.BuildID)
		return nil
	}

	msgs := make([]kafkago.Message, len(catalogue.Segments))
	for i := range catalogue.Segments {
		msg, err := serializeToMessage(catalogue, catalogue.Segments[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a scored segment into a Kafka message carrying
// the catalogue build metadata in headers.
func serializeToMessage(catalogue scoring.Catalogue, segment scoring.ScoredSegment) (kafkago.Message, error) {
	data, err := json.Marshal(segment)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scored segment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(segment.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "build_id", Value: []byte(catalogue.BuildID)},
			{Key: "uf", Value: []byte(segment.UF)},
			{Key: "generated_at", Value: []byte(catalogue.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
