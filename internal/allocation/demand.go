package allocation

import (
	"math"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

// Demand derives the requested quantity per resource kind from the event's
// scale alone: ceil(peopleAffected * rate). Zero people affected is valid
// input and yields zero demand across the board.
func (e *Engine) Demand(event models.DisasterEvent) models.DemandVector {
	d := make(models.DemandVector, len(models.AllResourceKinds))
	for _, kind := range models.AllResourceKinds {
		if event.PeopleAffected <= 0 {
			d[kind] = 0
			continue
		}
		d[kind] = int64(math.Ceil(float64(event.PeopleAffected) * e.cfg.PerCapitaRates[kind]))
	}
	return d
}

// Weight combines the tier's base share with the type-specific multiplier
// into the event's priority weight for one resource kind.
func (e *Engine) Weight(event models.DisasterEvent, kind models.ResourceKind) float64 {
	return e.cfg.SeverityWeights[event.Severity] * e.cfg.multiplier(event.Type, kind)
}
