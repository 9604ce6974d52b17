package allocation

import (
	"testing"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func waterRequest(demand int64, weight float64) Request {
	return Request{
		Demand:  models.DemandVector{models.ResourceWater: demand},
		Weights: map[models.ResourceKind]float64{models.ResourceWater: weight},
	}
}

func TestAllocate_CapAndRedistribute(t *testing.T) {
	// Pool 100; A(w=0.5, d=80), B(w=0.3, d=10), C(w=0.2, d=10).
	// B and C cap at 10 each in pass one, the surplus flows to A, and A's
	// demand of 80 exactly absorbs the remaining 80.
	e := newTestEngine(t)

	requests := []Request{
		waterRequest(80, 0.5),
		waterRequest(10, 0.3),
		waterRequest(10, 0.2),
	}
	pool := models.ResourcePool{models.ResourceWater: 100}

	results, err := e.Allocate(requests, pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	want := []int64{80, 10, 10}
	for i, w := range want {
		got := results[i][models.ResourceWater]
		if got.Allocated != w {
			t.Errorf("event %d: expected %d allocated, got %d", i, w, got.Allocated)
		}
		if got.FulfillmentRate != 1.0 {
			t.Errorf("event %d: expected rate 1.0, got %v", i, got.FulfillmentRate)
		}
	}
}

func TestAllocate_Scarcity(t *testing.T) {
	// Pool 10; A(w=0.7, d=20), B(w=0.3, d=20). Nobody caps, so the first
	// pass is already the fixed point: A=7, B=3.
	e := newTestEngine(t)

	requests := []Request{
		{
			Demand:  models.DemandVector{models.ResourceFood: 20},
			Weights: map[models.ResourceKind]float64{models.ResourceFood: 0.7},
		},
		{
			Demand:  models.DemandVector{models.ResourceFood: 20},
			Weights: map[models.ResourceKind]float64{models.ResourceFood: 0.3},
		},
	}
	pool := models.ResourcePool{models.ResourceFood: 10}

	results, err := e.Allocate(requests, pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	a := results[0][models.ResourceFood]
	b := results[1][models.ResourceFood]
	if a.Allocated != 7 || b.Allocated != 3 {
		t.Errorf("expected 7/3 split, got %d/%d", a.Allocated, b.Allocated)
	}
	if a.FulfillmentRate != 0.35 {
		t.Errorf("expected rate 0.35 for A, got %v", a.FulfillmentRate)
	}
	if b.FulfillmentRate != 0.15 {
		t.Errorf("expected rate 0.15 for B, got %v", b.FulfillmentRate)
	}
}

func TestAllocate_FullSatisfactionFastPath(t *testing.T) {
	e := newTestEngine(t)

	requests := []Request{
		waterRequest(30, 0.5),
		waterRequest(20, 0.2),
	}
	pool := models.ResourcePool{models.ResourceWater: 100}

	results, err := e.Allocate(requests, pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	for i, want := range []int64{30, 20} {
		if got := results[i][models.ResourceWater].Allocated; got != want {
			t.Errorf("event %d: expected full demand %d, got %d", i, want, got)
		}
	}
}

func TestAllocate_ZeroCapacity(t *testing.T) {
	e := newTestEngine(t)

	requests := []Request{waterRequest(50, 0.5), waterRequest(0, 0.3)}
	pool := models.ResourcePool{models.ResourceWater: 0}

	results, err := e.Allocate(requests, pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if got := results[0][models.ResourceWater]; got.Allocated != 0 || got.FulfillmentRate != 0 {
		t.Errorf("expected 0 allocated at rate 0, got %d at %v", got.Allocated, got.FulfillmentRate)
	}
	// Zero demand against zero capacity is fully met by definition.
	if got := results[1][models.ResourceWater]; got.FulfillmentRate != 1.0 {
		t.Errorf("expected rate 1.0 for zero demand, got %v", got.FulfillmentRate)
	}
}

func TestAllocate_NegativePoolClamped(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.Allocate([]Request{waterRequest(10, 0.5)}, models.ResourcePool{models.ResourceWater: -5})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if got := results[0][models.ResourceWater].Allocated; got != 0 {
		t.Errorf("expected 0 from negative pool, got %d", got)
	}
}

func TestAllocate_NegativeWeightRejected(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Allocate([]Request{waterRequest(10, -0.5)}, models.ResourcePool{models.ResourceWater: 100})
	if err == nil {
		t.Fatal("expected error for negative weight")
	}
}

func TestAllocate_KindsDoNotInteract(t *testing.T) {
	e := newTestEngine(t)

	requests := []Request{
		{
			Demand: models.DemandVector{
				models.ResourceWater: 50,
				models.ResourceFood:  5,
			},
			Weights: map[models.ResourceKind]float64{
				models.ResourceWater: 0.5,
				models.ResourceFood:  0.5,
			},
		},
	}
	pool := models.ResourcePool{
		models.ResourceWater: 10, // scarce
		models.ResourceFood:  100,
	}

	results, err := e.Allocate(requests, pool)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if got := results[0][models.ResourceWater].Allocated; got != 10 {
		t.Errorf("expected scarce water capped at 10, got %d", got)
	}
	if got := results[0][models.ResourceFood].Allocated; got != 5 {
		t.Errorf("expected full food demand 5, got %d", got)
	}
}

func TestDistribute_CapacityInvariant(t *testing.T) {
	cases := []struct {
		name     string
		capacity int64
		demands  []int64
		weights  []float64
	}{
		{"scarce", 100, []int64{80, 90, 70}, []float64{0.5, 0.3, 0.2}},
		{"abundant", 1000, []int64{80, 90, 70}, []float64{0.5, 0.3, 0.2}},
		{"mixed caps", 57, []int64{3, 200, 41, 7}, []float64{0.2, 0.5, 0.3, 0.3}},
		{"single", 13, []int64{999}, []float64{0.42}},
		{"uneven weights", 17, []int64{9, 9, 9, 9, 9}, []float64{0.01, 0.9, 0.2, 0.35, 0.14}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := distribute(tc.capacity, tc.demands, tc.weights)

			var sum int64
			for i, a := range got {
				if a < 0 || a > tc.demands[i] {
					t.Errorf("allocation %d out of [0, demand]: %d (demand %d)", i, a, tc.demands[i])
				}
				sum += a
			}
			if sum > tc.capacity {
				t.Errorf("allocations sum %d exceeds capacity %d", sum, tc.capacity)
			}
		})
	}
}

func TestDistribute_Deterministic(t *testing.T) {
	demands := []int64{31, 170, 5, 88, 12}
	weights := []float64{0.3, 0.5, 0.2, 0.5, 0.3}

	first := distribute(100, demands, weights)
	for run := 0; run < 10; run++ {
		again := distribute(100, demands, weights)
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("run %d: allocation %d changed from %d to %d", run, i, first[i], again[i])
			}
		}
	}
}

func TestDistribute_WeightMonotonicity(t *testing.T) {
	demands := []int64{60, 60, 60}
	base := distribute(100, demands, []float64{0.3, 0.3, 0.4})
	boosted := distribute(100, demands, []float64{0.5, 0.3, 0.4})

	if boosted[0] < base[0] {
		t.Errorf("raising event 0's weight decreased its allocation: %d -> %d", base[0], boosted[0])
	}
	for i := 1; i < len(demands); i++ {
		if boosted[i] > base[i] {
			t.Errorf("raising event 0's weight increased event %d's allocation: %d -> %d", i, base[i], boosted[i])
		}
	}
}

func TestDistribute_FixedPointProportionality(t *testing.T) {
	// When capacity exhausts with demand left over, every uncapped event
	// ends with (nearly) the same allocated/weight ratio.
	demands := []int64{1000, 1000, 1000}
	weights := []float64{0.5, 0.3, 0.2}
	got := distribute(100, demands, weights)

	ratio0 := float64(got[0]) / weights[0]
	for i := 1; i < len(got); i++ {
		ratio := float64(got[i]) / weights[i]
		// Integer rounding moves each ratio by at most one unit of weight.
		if diff := ratio - ratio0; diff > 1/weights[i] || diff < -1/weights[i] {
			t.Errorf("event %d: alloc/weight ratio %v deviates from %v", i, ratio, ratio0)
		}
	}

	var sum int64
	for _, a := range got {
		sum += a
	}
	if sum != 100 {
		t.Errorf("expected fully exhausted capacity 100, got %d", sum)
	}
}

func TestNewEngine_RejectsIncompleteConfig(t *testing.T) {
	cfg := DefaultConfig()
	delete(cfg.PerCapitaRates, models.ResourceMedicine)

	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected error for missing per-capita rate")
	}
}
