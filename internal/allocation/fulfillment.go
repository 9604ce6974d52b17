package allocation

import "github.com/tmarks/go-relief-allocator/internal/models"

// Rate is the fulfillment ratio for one (event, resource) pair. A zero
// request is fully met: nothing was needed, so nothing is unmet.
func Rate(allocated, requested int64) float64 {
	if requested == 0 {
		return 1.0
	}
	return float64(allocated) / float64(requested)
}

// OverallRate is the demand-weighted mean fulfillment across resource kinds
// for one event: total allocated over total requested.
func OverallRate(allocations map[models.ResourceKind]models.Allocation) float64 {
	var requested, allocated int64
	for _, a := range allocations {
		requested += a.Requested
		allocated += a.Allocated
	}
	return Rate(allocated, requested)
}

// summarize aggregates a finished batch: per-resource utilization of the
// starting pool, mean overall fulfillment per severity tier, and what is
// left of the pool.
func summarize(results []models.EventResult, pool models.ResourcePool) models.Summary {
	s := models.Summary{
		TotalEvents:               len(results),
		Utilization:               make(map[models.ResourceKind]float64, len(models.AllResourceKinds)),
		MeanFulfillmentBySeverity: make(map[models.Severity]float64),
		Remaining:                 pool.Clone(),
	}

	rateSum := make(map[models.Severity]float64)
	rateCount := make(map[models.Severity]int)

	totalAllocated := make(map[models.ResourceKind]int64, len(models.AllResourceKinds))
	for _, r := range results {
		s.TotalPeopleAffected += r.Event.PeopleAffected
		rateSum[r.Event.Severity] += r.OverallRate
		rateCount[r.Event.Severity]++
		for kind, a := range r.Allocations {
			totalAllocated[kind] += a.Allocated
		}
	}

	for _, kind := range models.AllResourceKinds {
		s.Remaining[kind] = pool[kind] - totalAllocated[kind]
		if pool[kind] > 0 {
			s.Utilization[kind] = float64(totalAllocated[kind]) / float64(pool[kind])
		} else {
			s.Utilization[kind] = 0
		}
	}

	for tier, n := range rateCount {
		s.MeanFulfillmentBySeverity[tier] = rateSum[tier] / float64(n)
	}

	return s
}
