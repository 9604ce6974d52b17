package allocation

import (
	"fmt"
	"math"
	"sort"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

// Engine computes capacity-respecting, demand-capped allocations. It is
// pure: no hidden state, no I/O, and the pool is a value it never retains.
type Engine struct {
	cfg Config
}

// NewEngine validates the lookup tables and returns an engine. An incomplete
// table is a configuration error and must stop startup.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid allocation config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Request is one event's input to an allocation pass: what it needs and how
// hard it pulls, per resource kind.
type Request struct {
	Demand  models.DemandVector
	Weights map[models.ResourceKind]float64
}

// Allocate runs one water-filling pass per resource kind over a fixed pool
// snapshot. The four kinds do not interact. Results are indexed like
// requests. Negative weights are rejected; negative pool quantities are
// clamped to zero (a safe local default).
func (e *Engine) Allocate(requests []Request, pool models.ResourcePool) ([]map[models.ResourceKind]models.Allocation, error) {
	results := make([]map[models.ResourceKind]models.Allocation, len(requests))
	for i := range results {
		results[i] = make(map[models.ResourceKind]models.Allocation, len(models.AllResourceKinds))
	}

	for _, kind := range models.AllResourceKinds {
		capacity := pool[kind]
		if capacity < 0 {
			capacity = 0
		}

		demands := make([]int64, len(requests))
		weights := make([]float64, len(requests))
		for i, req := range requests {
			demands[i] = req.Demand[kind]
			weights[i] = req.Weights[kind]
			if demands[i] < 0 {
				return nil, fmt.Errorf("negative demand for resource %s at index %d", kind, i)
			}
			if weights[i] < 0 {
				return nil, fmt.Errorf("negative weight for resource %s at index %d", kind, i)
			}
		}

		allocated := distribute(capacity, demands, weights)
		for i := range requests {
			results[i][kind] = models.Allocation{
				Requested:       demands[i],
				Allocated:       allocated[i],
				FulfillmentRate: Rate(allocated[i], demands[i]),
			}
		}
	}

	return results, nil
}

// distribute is the water-filling core for a single resource kind. Each pass
// hands every active event a provisional share proportional to its weight,
// caps events whose share covers their demand, returns the surplus to the
// remaining capacity, and repeats until no event caps (fixed point) or the
// active set empties. Events capped in the same pass are capped against the
// same capacity snapshot, so the result is order-independent.
func distribute(capacity int64, demands []int64, weights []float64) []int64 {
	alloc := make([]int64, len(demands))
	if capacity <= 0 {
		return alloc
	}

	active := make([]int, 0, len(demands))
	for i := range demands {
		if demands[i] > 0 && weights[i] > 0 {
			active = append(active, i)
		}
	}

	shares := make([]float64, len(demands))
	remaining := float64(capacity)
	for len(active) > 0 {
		var sumW float64
		for _, i := range active {
			sumW += weights[i]
		}

		passRemaining := remaining
		capped := false
		next := active[:0]
		for _, i := range active {
			provisional := passRemaining * weights[i] / sumW
			if provisional >= float64(demands[i]) {
				alloc[i] = demands[i]
				remaining -= float64(demands[i])
				capped = true
			} else {
				next = append(next, i)
			}
		}
		active = next

		if !capped {
			// Fixed point: the survivors keep their converged proportional
			// shares, all strictly below demand.
			for _, i := range active {
				shares[i] = remaining * weights[i] / sumW
			}
			break
		}
	}

	roundShares(alloc, shares, demands)
	return alloc
}

// roundShares converts the fractional fixed-point shares to integers with
// largest-remainder rounding. The integer budget is the floor of the share
// total, so the overall sum can never exceed the capacity the shares were
// drawn from.
func roundShares(alloc []int64, shares []float64, demands []int64) {
	const eps = 1e-9

	var total float64
	for _, s := range shares {
		total += s
	}
	if total <= 0 {
		return
	}
	budget := int64(math.Floor(total + eps))

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, 0, len(shares))

	var used int64
	for i, s := range shares {
		if s <= 0 {
			continue
		}
		whole := math.Floor(s + eps)
		alloc[i] = int64(whole)
		used += int64(whole)
		rems = append(rems, remainder{idx: i, frac: s - whole})
	}

	// Stable sort keeps ties deterministic by input position.
	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac > rems[b].frac
	})

	leftover := budget - used
	for _, r := range rems {
		if leftover <= 0 {
			break
		}
		if alloc[r.idx] < demands[r.idx] {
			alloc[r.idx]++
			leftover--
		}
	}
}
