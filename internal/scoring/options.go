// Package scoring turns normalized accident events into a scored segment
// catalogue: fixed-length km bins per (uf, highway), accident density per
// bin, and a 0-100 min-max priority index over a configurable scope.
package scoring

import (
	"errors"
	"fmt"

	"github.com/rodovia-segura/radar-priority-etl/internal/domain"
)

// Scope selects the segment population over which densities are min-max
// normalized.
type Scope string

const (
	ScopeGlobal     Scope = "global"
	ScopePerUF      Scope = "per_uf"
	ScopePerHighway Scope = "per_highway"
)

// ErrInvalidConfig marks a fatal configuration error, raised before any data
// is processed.
var ErrInvalidConfig = errors.New("invalid scoring configuration")

// ParseScope validates a scope string from configuration.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeGlobal, ScopePerUF, ScopePerHighway:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("%w: unknown normalization scope %q", ErrInvalidConfig, s)
	}
}

// HighwayKey identifies a highway within a state. Km markers restart at state
// borders, so this pair is the segmentation partition key.
type HighwayKey struct {
	UF      domain.UF
	Highway string
}

// Extent is a configured half-open [MinKm, MaxKm) highway extent override.
// Without an override the extent is derived from observed km markers.
type Extent struct {
	MinKm float64
	MaxKm float64
}

// Options configures a scoring run.
type Options struct {
	BinSizeKm        float64
	Scope            Scope
	WeightingEnabled bool

	// Extents overrides the observed extent for specific highways. Events
	// outside an override are rejected, not clamped.
	Extents map[HighwayKey]Extent
}

// DefaultOptions returns 1 km bins, global scope, unweighted counts.
func DefaultOptions() Options {
	return Options{BinSizeKm: 1.0, Scope: ScopeGlobal}
}

// Validate reports a fatal configuration error, wrapping ErrInvalidConfig.
func (o Options) Validate() error {
	if o.BinSizeKm <= 0 {
		return fmt.Errorf("%w: bin size must be positive, got %g", ErrInvalidConfig, o.BinSizeKm)
	}
	if _, err := ParseScope(string(o.Scope)); err != nil {
		return err
	}
	for key, ext := range o.Extents {
		if ext.MaxKm <= ext.MinKm || ext.MinKm < 0 {
			return fmt.Errorf("%w: extent for %s/%s must satisfy 0 <= min < max, got [%g, %g)",
				ErrInvalidConfig, key.UF, key.Highway, ext.MinKm, ext.MaxKm)
		}
	}
	return nil
}
