// Package classifier is the boundary to the severity model. The trained
// model lives outside this service; Predictor keeps it an opaque function
// call, and Heuristic is the rule-based fallback used when a record arrives
// without a tier and no model is wired up.
package classifier

import "github.com/tmarks/go-relief-allocator/internal/models"

// Features are the raw disaster attributes a prediction runs on.
type Features struct {
	Type           models.DisasterType
	Deaths         int64
	PeopleAffected int64
	DamagesUSD     int64
}

type Predictor interface {
	Predict(f Features) (models.Severity, float64, error)
}

// Heuristic scores each impact factor into a 1-3 band and maps the total to
// a tier: >= 7 High, >= 5 Medium, else Low.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Predict(f Features) (models.Severity, float64, error) {
	bands := []int{
		band(f.Deaths, 10, 100),
		band(f.PeopleAffected, 1000, 10000),
		band(f.DamagesUSD, 1_000_000, 10_000_000),
	}

	score := 0
	for _, b := range bands {
		score += b
	}

	var tier models.Severity
	var tierBand int
	switch {
	case score >= 7:
		tier, tierBand = models.SeverityHigh, 3
	case score >= 5:
		tier, tierBand = models.SeverityMedium, 2
	default:
		tier, tierBand = models.SeverityLow, 1
	}

	// Confidence is the share of factors that individually agree with the
	// final tier. Unanimous factors give 1.0; a split decision scores lower.
	agree := 0
	for _, b := range bands {
		if b == tierBand {
			agree++
		}
	}
	confidence := float64(agree) / float64(len(bands))

	return tier, confidence, nil
}

func band(v, low, medium int64) int {
	switch {
	case v >= medium:
		return 3
	case v >= low:
		return 2
	default:
		return 1
	}
}
