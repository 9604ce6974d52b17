// Package allocation implements the relief allocation core: severity
// weighting, per-capita demand modeling, and the capacity-constrained
// water-filling distribution of a shared resource pool across events.
package allocation

import (
	"fmt"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

// Config carries the lookup tables the engine runs on. Completeness is
// validated up front: a missing rate or tier weight is a startup failure,
// never a silent zero at lookup time.
type Config struct {
	// SeverityWeights are relative priority weights per tier, not pool
	// percentages. Events of one tier split that tier's pull by demand.
	SeverityWeights map[models.Severity]float64

	// PerCapitaRates derive requested quantities: demand = ceil(people * rate).
	PerCapitaRates map[models.ResourceKind]float64

	// TypeMultipliers boost the priority weight for (disaster type, resource)
	// pairs with known elevated need. Missing entries mean 1.0.
	TypeMultipliers map[models.DisasterType]map[models.ResourceKind]float64
}

// DefaultConfig returns the standard tables: 50/30/20 tier weights, the
// documented per-capita kit rates, and the domain multiplier table.
func DefaultConfig() Config {
	return Config{
		SeverityWeights: map[models.Severity]float64{
			models.SeverityHigh:   0.5,
			models.SeverityMedium: 0.3,
			models.SeverityLow:    0.2,
		},
		PerCapitaRates: map[models.ResourceKind]float64{
			models.ResourceFood:     0.1,  // food kits per person (family sharing)
			models.ResourceWater:    0.2,  // water packs per person
			models.ResourceMedicine: 0.05, // medicine kits per person
			models.ResourceShelter:  0.02, // shelter units per person
		},
		TypeMultipliers: map[models.DisasterType]map[models.ResourceKind]float64{
			models.DisasterTypeFlood: {
				models.ResourceWater:   1.4,
				models.ResourceShelter: 1.3,
			},
			models.DisasterTypeEarthquake: {
				models.ResourceShelter:  1.5,
				models.ResourceMedicine: 1.4,
			},
			models.DisasterTypeDrought: {
				models.ResourceWater: 1.6,
				models.ResourceFood:  1.3,
			},
			models.DisasterTypeCyclone: {
				models.ResourceShelter: 1.3,
				models.ResourceWater:   1.2,
			},
		},
	}
}

// Validate checks table completeness. Tier weights and per-capita rates must
// exist and be positive for every tier and resource kind the engine is
// responsible for; multipliers may be sparse but never negative.
func (c Config) Validate() error {
	for _, tier := range []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh} {
		w, ok := c.SeverityWeights[tier]
		if !ok {
			return fmt.Errorf("severity weight missing for tier %s", tier)
		}
		if w <= 0 {
			return fmt.Errorf("severity weight for tier %s must be positive, got %v", tier, w)
		}
	}

	for _, kind := range models.AllResourceKinds {
		r, ok := c.PerCapitaRates[kind]
		if !ok {
			return fmt.Errorf("per-capita rate missing for resource %s", kind)
		}
		if r <= 0 {
			return fmt.Errorf("per-capita rate for resource %s must be positive, got %v", kind, r)
		}
	}

	for dt, factors := range c.TypeMultipliers {
		for kind, f := range factors {
			if f < 0 {
				return fmt.Errorf("type multiplier for %s/%s must not be negative, got %v", dt, kind, f)
			}
		}
	}

	return nil
}

// multiplier returns the type-specific need factor, 1.0 when the table has
// no entry for the pair.
func (c Config) multiplier(dt models.DisasterType, kind models.ResourceKind) float64 {
	factors, ok := c.TypeMultipliers[dt]
	if !ok {
		return 1.0
	}
	f, ok := factors[kind]
	if !ok {
		return 1.0
	}
	return f
}
