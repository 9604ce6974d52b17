package allocation

import (
	"time"

	"github.com/google/uuid"
	"github.com/tmarks/go-relief-allocator/internal/models"
)

// Coordinator drives the engine across a batch of events sharing one pool
// snapshot. Invalid events are excluded and reported with a reason code;
// a bad record never aborts the batch.
type Coordinator struct {
	engine *Engine

	// now and newID are swappable so a report can be reproduced exactly:
	// with them pinned, identical inputs yield identical BatchResults.
	now   func() time.Time
	newID func() string
}

func NewCoordinator(engine *Engine) *Coordinator {
	return &Coordinator{
		engine: engine,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run computes one allocation snapshot. The pool is treated as immutable for
// the duration of the call; negative quantities are clamped to zero before
// the snapshot is taken. Results preserve the input order of valid events.
func (c *Coordinator) Run(events []models.DisasterEvent, pool models.ResourcePool) (models.BatchResult, error) {
	snapshot := make(models.ResourcePool, len(models.AllResourceKinds))
	for _, kind := range models.AllResourceKinds {
		if q := pool[kind]; q > 0 {
			snapshot[kind] = q
		} else {
			snapshot[kind] = 0
		}
	}

	result := models.BatchResult{
		ID:      c.newID(),
		RunAt:   c.now().UTC(),
		Results: []models.EventResult{},
		Skipped: []models.SkippedEvent{},
	}

	valid := make([]models.DisasterEvent, 0, len(events))
	warnings := make([][]string, 0, len(events))
	for _, ev := range events {
		ev, warns, skip := c.validate(ev)
		if skip != "" {
			result.Skipped = append(result.Skipped, models.SkippedEvent{ID: ev.ID, Reason: skip})
			continue
		}
		valid = append(valid, ev)
		warnings = append(warnings, warns)
	}

	requests := make([]Request, len(valid))
	for i, ev := range valid {
		w := make(map[models.ResourceKind]float64, len(models.AllResourceKinds))
		for _, kind := range models.AllResourceKinds {
			w[kind] = c.engine.Weight(ev, kind)
		}
		requests[i] = Request{Demand: c.engine.Demand(ev), Weights: w}
	}

	// Config and inputs are validated above, so the engine cannot see a
	// negative weight or demand here.
	allocations, err := c.engine.Allocate(requests, snapshot)
	if err != nil {
		return models.BatchResult{}, err
	}

	for i, ev := range valid {
		result.Results = append(result.Results, models.EventResult{
			Event:       ev,
			Allocations: allocations[i],
			OverallRate: OverallRate(allocations[i]),
			Warnings:    warnings[i],
		})
	}

	result.Summary = summarize(result.Results, snapshot)
	return result, nil
}

// validate normalizes one event. Unknown tiers default to Low with a
// warning; a negative people-affected count excludes the event.
func (c *Coordinator) validate(ev models.DisasterEvent) (models.DisasterEvent, []string, models.SkipReason) {
	if ev.ID == "" {
		ev.ID = c.newID()
	}
	if ev.PeopleAffected < 0 {
		return ev, nil, models.SkipNegativePeople
	}

	var warns []string
	if _, ok := c.engine.cfg.SeverityWeights[ev.Severity]; !ok {
		ev.Severity = models.SeverityLow
		warns = append(warns, models.WarnUnknownSeverity)
	}
	if ev.Type == "" {
		ev.Type = models.DisasterTypeOther
	}

	return ev, warns, ""
}
