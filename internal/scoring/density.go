package scoring

import (
	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

// ScoredSegment joins a segment with its accident count, density and priority
// index. Built once per run and owned exclusively by the catalogue.
type ScoredSegment struct {
	Segment

	AccidentCount int     `json:"accident_count"`
	WeightedCount float64 `json:"weighted_count"`
	Density       float64 `json:"density"`
	Priority      float64 `json:"priority"`

	// Centroid is the mean coordinate of the segment's events, nil when the
	// segment is empty or its events carry no coordinates. Consumed by the
	// map renderer for marker placement.
	Centroid *domain.Geo `json:"centroid,omitempty"`
}

// scoreHighway assigns one highway's events to its bins and computes density
// per bin. Empty bins get density 0 rather than being dropped, so the
// normalizer later sees a total ordering over every segment.
func scoreHighway(hb highwayBins, weighting bool) []ScoredSegment {
	scored := make([]ScoredSegment, len(hb.segments))
	for i, seg := range hb.segments {
		scored[i] = ScoredSegment{Segment: seg}
	}

	type geoAcc struct {
		latSum, lonSum float64
		n              int
	}
	geos := make([]geoAcc, len(hb.segments))

	for _, e := range hb.events {
		idx := hb.segmentIndex(e.Km)
		scored[idx].AccidentCount++
		scored[idx].WeightedCount += e.Weight
		if e.Geo != nil {
			geos[idx].latSum += e.Geo.Lat
			geos[idx].lonSum += e.Geo.Lon
			geos[idx].n++
		}
	}

	for i := range scored {
		mass := float64(scored[i].AccidentCount)
		if weighting {
			mass = scored[i].WeightedCount
		}
		if scored[i].LengthKm > 0 {
			scored[i].Density = mass / scored[i].LengthKm
		}
		if g := geos[i]; g.n > 0 {
			scored[i].Centroid = &domain.Geo{
				Lat: g.latSum / float64(g.n),
				Lon: g.lonSum / float64(g.n),
			}
		}
	}

	return scored
}
