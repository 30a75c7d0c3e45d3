package scoring

import (
	"fmt"
	"math"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

// Segment is a fixed-length linear bin of a highway's extent, the unit of
// aggregation. Bins are half-open [StartKm, EndKm) except the last bin of a
// highway, which is closed so the highway's max km stays in it.
type Segment struct {
	ID       string    `json:"id"`
	Highway  string    `json:"highway"`
	UF       domain.UF `json:"uf"`
	StartKm  float64   `json:"start_km"`
	EndKm    float64   `json:"end_km"`
	LengthKm float64   `json:"length_km"`
}

// indexEpsilon guards bin index computation against float rounding at
// segment boundaries.
const indexEpsilon = 1e-9

// highwayBins is one highway's segment grid plus its assigned events.
type highwayBins struct {
	key      HighwayKey
	startKm  float64
	binKm    float64
	segments []Segment
	events   []domain.AccidentEvent
}

// partitionEvents splits the event set by (uf, highway). Highways are
// mutually independent partitions, which is what makes per-highway fan-out
// safe later on.
func partitionEvents(events []domain.AccidentEvent) map[HighwayKey][]domain.AccidentEvent {
	parts := make(map[HighwayKey][]domain.AccidentEvent)
	for _, e := range events {
		key := HighwayKey{UF: e.UF, Highway: e.Highway}
		parts[key] = append(parts[key], e)
	}
	return parts
}

// buildHighwayBins generates the segment grid for one highway and keeps the
// events that fall inside it. Returns the number of events rejected for
// lying outside a configured extent override.
//
// Observed extents are grid-aligned (start = floor(min/bin)*bin) and every
// bin is a full bin length; the bin containing the max observed km always
// exists, so a marker landing exactly on a boundary opens one more bin. A
// configured override is taken verbatim as [min, max) and its final bin
// absorbs the remainder, so that bin may be shorter.
func buildHighwayBins(key HighwayKey, events []domain.AccidentEvent, opts Options) (highwayBins, int) {
	bin := opts.BinSizeKm

	if ext, ok := opts.Extents[key]; ok {
		kept := make([]domain.AccidentEvent, 0, len(events))
		for _, e := range events {
			if e.Km < ext.MinKm || e.Km >= ext.MaxKm {
				continue
			}
			kept = append(kept, e)
		}
		rejected := len(events) - len(kept)

		span := ext.MaxKm - ext.MinKm
		n := int(math.Ceil(span/bin - indexEpsilon))
		if n < 1 {
			n = 1
		}
		segments := makeSegments(key, ext.MinKm, bin, n)
		// Final bin absorbs the remainder.
		last := &segments[n-1]
		last.EndKm = ext.MaxKm
		last.LengthKm = ext.MaxKm - last.StartKm

		return highwayBins{key: key, startKm: ext.MinKm, binKm: bin, segments: segments, events: kept}, rejected
	}

	if len(events) == 0 {
		return highwayBins{key: key, binKm: bin}, 0
	}

	minKm, maxKm := events[0].Km, events[0].Km
	for _, e := range events[1:] {
		if e.Km < minKm {
			minKm = e.Km
		}
		if e.Km > maxKm {
			maxKm = e.Km
		}
	}

	start := math.Floor(minKm/bin) * bin
	n := int(math.Floor((maxKm-start)/bin+indexEpsilon)) + 1
	segments := makeSegments(key, start, bin, n)

	return highwayBins{key: key, startKm: start, binKm: bin, segments: segments, events: events}, 0
}

func makeSegments(key HighwayKey, start, bin float64, n int) []Segment {
	segments := make([]Segment, n)
	for i := range segments {
		s := start + float64(i)*bin
		segments[i] = Segment{
			ID:       fmt.Sprintf("%s-%s-%03d", key.Highway, key.UF, i),
			Highway:  key.Highway,
			UF:       key.UF,
			StartKm:  s,
			EndKm:    s + bin,
			LengthKm: bin,
		}
	}
	return segments
}

// segmentIndex maps a km marker to its bin, clamped to the grid so float
// rounding at the final boundary cannot fall off the end.
func (hb highwayBins) segmentIndex(km float64) int {
	idx := int(math.Floor((km - hb.startKm) / hb.binKm))
	if idx < 0 {
		return 0
	}
	if idx >= len(hb.segments) {
		return len(hb.segments) - 1
	}
	return idx
}
