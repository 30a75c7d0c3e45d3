package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

func kmEvents(uf domain.UF, highway string, kms ...float64) []domain.AccidentEvent {
	events := make([]domain.AccidentEvent, len(kms))
	for i, km := range kms {
		events[i] = domain.AccidentEvent{UF: uf, Highway: highway, Km: km, Weight: 1}
	}
	return events
}

func TestBuildHighwayBins_ObservedExtent(t *testing.T) {
	key := HighwayKey{UF: domain.UFES, Highway: "BR-101"}
	opts := DefaultOptions()

	t.Run("grid aligned full bins", func(t *testing.T) {
		bins, outside := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 0.2, 0.5, 1.1, 1.9), opts)

		assert.Zero(t, outside)
		require.Len(t, bins.segments, 2)
		assert.Equal(t, 0.0, bins.segments[0].StartKm)
		assert.Equal(t, 1.0, bins.segments[0].EndKm)
		assert.Equal(t, 1.0, bins.segments[1].StartKm)
		assert.Equal(t, 2.0, bins.segments[1].EndKm)
		for _, seg := range bins.segments {
			assert.Equal(t, 1.0, seg.LengthKm)
		}
	})

	t.Run("max km on a bin boundary opens one more bin", func(t *testing.T) {
		bins, _ := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 0.2, 0.5, 1.1, 1.9, 2.0), opts)

		require.Len(t, bins.segments, 3)
		assert.Equal(t, 2.0, bins.segments[2].StartKm)
		assert.Equal(t, 1.0, bins.segments[2].LengthKm)
		assert.Equal(t, 2, bins.segmentIndex(2.0))
	})

	t.Run("single observed point yields one full bin", func(t *testing.T) {
		bins, _ := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 3.7), opts)

		require.Len(t, bins.segments, 1)
		assert.Equal(t, 3.0, bins.segments[0].StartKm)
		assert.Equal(t, 4.0, bins.segments[0].EndKm)
		assert.Equal(t, opts.BinSizeKm, bins.segments[0].LengthKm)
	})

	t.Run("no events yields no segments", func(t *testing.T) {
		bins, _ := buildHighwayBins(key, nil, opts)
		assert.Empty(t, bins.segments)
	})

	t.Run("segment IDs carry highway, uf and index", func(t *testing.T) {
		bins, _ := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 0.5, 2.5), opts)
		require.Len(t, bins.segments, 3)
		assert.Equal(t, "BR-101-ES-000", bins.segments[0].ID)
		assert.Equal(t, "BR-101-ES-002", bins.segments[2].ID)
	})
}

func TestBuildHighwayBins_ConfiguredExtent(t *testing.T) {
	key := HighwayKey{UF: domain.UFSP, Highway: "BR-116"}

	t.Run("exact multiple of bin size", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Extents = map[HighwayKey]Extent{key: {MinKm: 0, MaxKm: 5}}

		bins, outside := buildHighwayBins(key, nil, opts)

		assert.Zero(t, outside)
		require.Len(t, bins.segments, 5)
		assert.Equal(t, 4.0, bins.segments[4].StartKm)
		assert.Equal(t, 5.0, bins.segments[4].EndKm)
	})

	t.Run("final bin absorbs the remainder", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Extents = map[HighwayKey]Extent{key: {MinKm: 10, MaxKm: 12.5}}

		bins, _ := buildHighwayBins(key, nil, opts)

		require.Len(t, bins.segments, 3)
		assert.Equal(t, 12.0, bins.segments[2].StartKm)
		assert.Equal(t, 12.5, bins.segments[2].EndKm)
		assert.Equal(t, 0.5, bins.segments[2].LengthKm)
	})

	t.Run("events outside the override are rejected", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Extents = map[HighwayKey]Extent{key: {MinKm: 0, MaxKm: 5}}

		events := kmEvents(key.UF, key.Highway, 1.0, 4.9, 5.0, 7.3)
		bins, outside := buildHighwayBins(key, events, opts)

		assert.Equal(t, 2, outside) // 5.0 is outside the half-open extent
		assert.Len(t, bins.events, 2)
	})
}

func TestSegmentIndex(t *testing.T) {
	key := HighwayKey{UF: domain.UFMG, Highway: "BR-381"}
	bins, _ := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 0.1, 3.0), DefaultOptions())
	require.Len(t, bins.segments, 4)

	tests := []struct {
		name string
		km   float64
		idx  int
	}{
		{"interior of first bin", 0.4, 0},
		{"boundary goes to next bin", 1.0, 1},
		{"interior of second bin", 1.999, 1},
		{"global max on boundary stays in last bin", 3.0, 3},
		{"rounding above the grid clamps", 3.0000000001, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.idx, bins.segmentIndex(tt.km))
		})
	}
}

func TestScoreHighway_Density(t *testing.T) {
	key := HighwayKey{UF: domain.UFES, Highway: "BR-101"}

	t.Run("unweighted density is count per km", func(t *testing.T) {
		bins, _ := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 0.2, 0.5, 1.1, 1.9, 2.0), DefaultOptions())
		scored := scoreHighway(bins, false)

		require.Len(t, scored, 3)
		assert.Equal(t, []int{2, 2, 1}, []int{scored[0].AccidentCount, scored[1].AccidentCount, scored[2].AccidentCount})
		assert.Equal(t, 2.0, scored[0].Density)
		assert.Equal(t, 2.0, scored[1].Density)
		assert.Equal(t, 1.0, scored[2].Density)
	})

	t.Run("weighted density sums weights", func(t *testing.T) {
		events := []domain.AccidentEvent{
			{UF: key.UF, Highway: key.Highway, Km: 0.2, Weight: 3},
			{UF: key.UF, Highway: key.Highway, Km: 0.7, Weight: 1},
		}
		bins, _ := buildHighwayBins(key, events, DefaultOptions())
		scored := scoreHighway(bins, true)

		require.Len(t, scored, 1)
		assert.Equal(t, 2, scored[0].AccidentCount) // raw count is kept
		assert.Equal(t, 4.0, scored[0].WeightedCount)
		assert.Equal(t, 4.0, scored[0].Density)
	})

	t.Run("empty bins keep density zero", func(t *testing.T) {
		bins, _ := buildHighwayBins(key, kmEvents(key.UF, key.Highway, 0.5, 4.5), DefaultOptions())
		scored := scoreHighway(bins, false)

		require.Len(t, scored, 5)
		for _, s := range scored[1:4] {
			assert.Zero(t, s.AccidentCount)
			assert.Zero(t, s.Density)
		}
	})

	t.Run("centroid is the mean of event coordinates", func(t *testing.T) {
		events := []domain.AccidentEvent{
			{UF: key.UF, Highway: key.Highway, Km: 0.2, Weight: 1, Geo: &domain.Geo{Lat: -20.0, Lon: -40.0}},
			{UF: key.UF, Highway: key.Highway, Km: 0.8, Weight: 1, Geo: &domain.Geo{Lat: -21.0, Lon: -41.0}},
			{UF: key.UF, Highway: key.Highway, Km: 0.9, Weight: 1}, // no coordinates
		}
		bins, _ := buildHighwayBins(key, events, DefaultOptions())
		scored := scoreHighway(bins, false)

		require.Len(t, scored, 1)
		require.NotNil(t, scored[0].Centroid)
		assert.InEpsilon(t, -20.5, scored[0].Centroid.Lat, 1e-12)
		assert.InEpsilon(t, -40.5, scored[0].Centroid.Lon, 1e-12)
	})
}

func TestApplyPriorities(t *testing.T) {
	seg := func(uf domain.UF, highway string, density float64) ScoredSegment {
		return ScoredSegment{Segment: Segment{UF: uf, Highway: highway}, Density: density}
	}

	t.Run("global min maps to 0 and max to 100", func(t *testing.T) {
		segments := []ScoredSegment{
			seg(domain.UFES, "BR-101", 2),
			seg(domain.UFES, "BR-101", 2),
			seg(domain.UFES, "BR-101", 1),
		}
		degenerate := applyPriorities(segments, ScopeGlobal)

		assert.Zero(t, degenerate)
		assert.Equal(t, 100.0, segments[0].Priority)
		assert.Equal(t, 100.0, segments[1].Priority)
		assert.Equal(t, 0.0, segments[2].Priority)
	})

	t.Run("degenerate scope maps everything to 0", func(t *testing.T) {
		segments := []ScoredSegment{
			seg(domain.UFSP, "BR-116", 0),
			seg(domain.UFSP, "BR-116", 0),
		}
		degenerate := applyPriorities(segments, ScopeGlobal)

		assert.Equal(t, 1, degenerate)
		for _, s := range segments {
			assert.Zero(t, s.Priority)
		}
	})

	t.Run("per-uf scope normalizes states independently", func(t *testing.T) {
		segments := []ScoredSegment{
			seg(domain.UFES, "BR-101", 1),
			seg(domain.UFES, "BR-101", 3),
			seg(domain.UFSP, "BR-116", 10),
			seg(domain.UFSP, "BR-116", 20),
		}
		degenerate := applyPriorities(segments, ScopePerUF)

		assert.Zero(t, degenerate)
		assert.Equal(t, 0.0, segments[0].Priority)
		assert.Equal(t, 100.0, segments[1].Priority)
		assert.Equal(t, 0.0, segments[2].Priority)
		assert.Equal(t, 100.0, segments[3].Priority)
	})

	t.Run("per-highway scope splits highways within a state", func(t *testing.T) {
		segments := []ScoredSegment{
			seg(domain.UFMG, "BR-040", 1),
			seg(domain.UFMG, "BR-040", 2),
			seg(domain.UFMG, "BR-381", 5),
			seg(domain.UFMG, "BR-381", 5),
		}
		degenerate := applyPriorities(segments, ScopePerHighway)

		assert.Equal(t, 1, degenerate) // BR-381 densities are all equal
		assert.Equal(t, 0.0, segments[0].Priority)
		assert.Equal(t, 100.0, segments[1].Priority)
		assert.Equal(t, 0.0, segments[2].Priority)
		assert.Equal(t, 0.0, segments[3].Priority)
	})
}

func TestOptionsValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, DefaultOptions().Validate())
	})

	t.Run("zero bin size", func(t *testing.T) {
		opts := DefaultOptions()
		opts.BinSizeKm = 0
		err := opts.Validate()
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("negative bin size", func(t *testing.T) {
		opts := DefaultOptions()
		opts.BinSizeKm = -1
		require.ErrorIs(t, opts.Validate(), ErrInvalidConfig)
	})

	t.Run("unknown scope", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Scope = "per_city"
		require.ErrorIs(t, opts.Validate(), ErrInvalidConfig)
	})

	t.Run("inverted extent", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Extents = map[HighwayKey]Extent{
			{UF: domain.UFRJ, Highway: "BR-101"}: {MinKm: 5, MaxKm: 5},
		}
		require.ErrorIs(t, opts.Validate(), ErrInvalidConfig)
	})
}

func TestParseScope(t *testing.T) {
	for _, valid := range []string{"global", "per_uf", "per_highway"} {
		scope, err := ParseScope(valid)
		require.NoError(t, err)
		assert.Equal(t, Scope(valid), scope)
	}

	_, err := ParseScope("GLOBAL")
	require.ErrorIs(t, err, ErrInvalidConfig)
}
