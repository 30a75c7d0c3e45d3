package scoring

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

// Catalogue is the complete, ordered scored-segment set for one run. It is
// rebuilt wholesale from the full event set on every run and replaces the
// previous build; nothing is mutated incrementally.
type Catalogue struct {
	BuildID     string    `json:"build_id"`
	GeneratedAt time.Time `json:"generated_at"`
	BinSizeKm   float64   `json:"bin_size_km"`
	Scope       Scope     `json:"scope"`

	Segments []ScoredSegment `json:"segments"`

	// RejectedOutsideExtent counts events dropped for lying outside a
	// configured extent override.
	RejectedOutsideExtent int `json:"rejected_outside_extent,omitempty"`

	// DegenerateScopes counts scope groups whose densities were all equal
	// and therefore mapped to priority 0.
	DegenerateScopes int `json:"degenerate_scopes"`
}

// Score runs the full segmentation-and-scoring pipeline over a normalized
// event set: partition by highway, bin, compute densities (fanned out per
// highway), then min-max normalize priorities across the configured scope.
// The scope normalization only starts once every highway's densities are in,
// which is the required barrier for global and per-UF scopes.
//
// A configuration error is returned before any event is touched; everything
// after that is deterministic in the input and options.
func Score(events []domain.AccidentEvent, opts Options) (Catalogue, error) {
	if err := opts.Validate(); err != nil {
		return Catalogue{}, err
	}

	parts := partitionEvents(events)

	// Extent overrides create segments even for highways with no events.
	for key := range opts.Extents {
		if _, ok := parts[key]; !ok {
			parts[key] = nil
		}
	}

	keys := make([]HighwayKey, 0, len(parts))
	for key := range parts {
		keys = append(keys, key)
	}

	perHighway := make([][]ScoredSegment, len(keys))
	rejected := make([]int, len(keys))

	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			bins, outside := buildHighwayBins(key, parts[key], opts)
			perHighway[i] = scoreHighway(bins, opts.WeightingEnabled)
			rejected[i] = outside
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Catalogue{}, err
	}

	var segments []ScoredSegment
	outsideTotal := 0
	for i := range keys {
		segments = append(segments, perHighway[i]...)
		outsideTotal += rejected[i]
	}

	sort.Slice(segments, func(i, j int) bool {
		a, b := &segments[i], &segments[j]
		if a.Highway != b.Highway {
			return a.Highway < b.Highway
		}
		if a.UF != b.UF {
			return a.UF < b.UF
		}
		return a.StartKm < b.StartKm
	})

	degenerate := applyPriorities(segments, opts.Scope)

	return Catalogue{
		BuildID:               uuid.NewString(),
		GeneratedAt:           clock.Now().UTC(),
		BinSizeKm:             opts.BinSizeKm,
		Scope:                 opts.Scope,
		Segments:              segments,
		RejectedOutsideExtent: outsideTotal,
		DegenerateScopes:      degenerate,
	}, nil
}
