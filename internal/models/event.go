package models

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// ParseSeverity maps free-form input to a tier. The second return value is
// false for unrecognized input, which callers treat as Low plus a warning.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(normalize(s)) {
	case SeverityLow:
		return SeverityLow, true
	case SeverityMedium:
		return SeverityMedium, true
	case SeverityHigh:
		return SeverityHigh, true
	default:
		return SeverityLow, false
	}
}

type DisasterType string

const (
	DisasterTypeFlood      DisasterType = "FLOOD"
	DisasterTypeEarthquake DisasterType = "EARTHQUAKE"
	DisasterTypeDrought    DisasterType = "DROUGHT"
	DisasterTypeCyclone    DisasterType = "CYCLONE"
	DisasterTypeOther      DisasterType = "OTHER"
)

// ParseDisasterType never fails: unrecognized types fall back to Other and
// simply get no type-specific need boost downstream.
func ParseDisasterType(s string) DisasterType {
	switch DisasterType(normalize(s)) {
	case DisasterTypeFlood:
		return DisasterTypeFlood
	case DisasterTypeEarthquake:
		return DisasterTypeEarthquake
	case DisasterTypeDrought:
		return DisasterTypeDrought
	case DisasterTypeCyclone:
		return DisasterTypeCyclone
	default:
		return DisasterTypeOther
	}
}

type ResourceKind string

const (
	ResourceFood     ResourceKind = "FOOD"
	ResourceWater    ResourceKind = "WATER"
	ResourceMedicine ResourceKind = "MEDICINE"
	ResourceShelter  ResourceKind = "SHELTER"
)

// AllResourceKinds is the closed set of resource kinds in a fixed order so
// that every iteration over the pool is deterministic.
var AllResourceKinds = []ResourceKind{ResourceFood, ResourceWater, ResourceMedicine, ResourceShelter}

type DisasterEvent struct {
	ID             string       `json:"id"`
	Type           DisasterType `json:"type"`
	Severity       Severity     `json:"severity"`
	PeopleAffected int64        `json:"people_affected"`
	Location       string       `json:"location,omitempty"`
	ReportedAt     time.Time    `json:"reported_at,omitempty"`
}

// ResourcePool maps each resource kind to the quantity on hand for one run.
type ResourcePool map[ResourceKind]int64

func (p ResourcePool) Clone() ResourcePool {
	c := make(ResourcePool, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// DemandVector is the requested quantity per resource kind for one event.
type DemandVector map[ResourceKind]int64

func (d DemandVector) Total() int64 {
	var t int64
	for _, v := range d {
		t += v
	}
	return t
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
