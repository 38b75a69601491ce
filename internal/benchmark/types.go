package benchmark

import (
	"fmt"
	"math"
)

// Report holds the throughput of one benchmark run, in operations per second.
//
//	{"get": 444555.12, "set": 398276.52, "update": 389244.75}
type Report struct {
	Get    float64 `json:"get"`
	Set    float64 `json:"set"`
	Update float64 `json:"update"`
}

// NewReport validates the three metrics and returns a Report.
func NewReport(get, set, update float64) (Report, error) {
	for _, m := range []struct {
		name string
		v    float64
	}{{"get", get}, {"set", set}, {"update", update}} {
		if math.IsNaN(m.v) || math.IsInf(m.v, 0) {
			return Report{}, fmt.Errorf("%s is not finite: %v", m.name, m.v)
		}
		if m.v < 0 {
			return Report{}, fmt.Errorf("%s is negative: %v", m.name, m.v)
		}
	}
	return Report{Get: get, Set: set, Update: update}, nil
}

// Slot names a baseline.
type Slot string

const (
	// SlotRelease is the latest stable release.
	SlotRelease Slot = "release"
	// SlotNext is the head of the mainline branch.
	SlotNext Slot = "next"
)

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s == SlotRelease || s == SlotNext
}

// Baseline is the single persisted reference for a slot.
type Baseline struct {
	Commit string `json:"commit"`
	Report Report `json:"report"`
}

// Comparison is the per-metric percentage change against one baseline.
type Comparison struct {
	Against string      `json:"against"`
	Result  DeltaReport `json:"result"`
}

// RawReport is the machine-readable artifact for a single bench run.
type RawReport struct {
	Commit  string       `json:"commit"`
	PR      string       `json:"pr"`
	Raw     Report       `json:"raw"`
	Results []Comparison `json:"results"`
}
