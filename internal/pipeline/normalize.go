package pipeline

import (
	"context"
	"log/slog"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

// RecordNormalizer adapts domain record parsing to the pipeline's Normalizer
// interface.
type RecordNormalizer struct {
	logger *slog.Logger
}

// NewRecordNormalizer creates a RecordNormalizer.
func NewRecordNormalizer(logger *slog.Logger) *RecordNormalizer {
	return &RecordNormalizer{logger: logger}
}

// Normalize parses and validates a raw record into an accident event.
func (n *RecordNormalizer) Normalize(_ context.Context, raw domain.RawEvent) (domain.AccidentEvent, error) {
	event, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.AccidentEvent{}, err
	}

	n.logger.Debug("record normalized",
		"event_id", event.ID,
		"highway", event.Highway,
		"uf", event.UF,
		"km", event.Km,
	)
	return event, nil
}
