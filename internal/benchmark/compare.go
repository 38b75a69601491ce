package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Delta is a signed percentage change. A Delta that is not Valid could not be
// computed because the baseline metric was zero.
type Delta struct {
	Value float64
	Valid bool
}

// ComputeDelta returns (current - baseline) / baseline * 100.
// Positive values are improvements for throughput metrics.
func ComputeDelta(current, baseline float64) Delta {
	if baseline == 0 {
		return Delta{}
	}
	v := (current - baseline) / baseline * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Delta{}
	}
	return Delta{Value: v, Valid: true}
}

// String renders the delta as "+10.00%", or "n/a" when invalid.
func (d Delta) String() string {
	if !d.Valid {
		return "n/a"
	}
	// Avoid "-0.00%".
	if math.Abs(d.Value) < 0.005 {
		return "+0.00%"
	}
	return fmt.Sprintf("%+.2f%%", d.Value)
}

// MarshalJSON encodes an invalid delta as null.
func (d Delta) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value)
}

func (d *Delta) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Delta{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Delta{Value: v, Valid: true}
	return nil
}

// DeltaReport is a Report of percentage changes.
type DeltaReport struct {
	Get    Delta `json:"get"`
	Set    Delta `json:"set"`
	Update Delta `json:"update"`
}

// Compare computes the change of current against a baseline, one metric at a
// time, so a zero baseline metric only invalidates its own delta.
func Compare(current Report, against Baseline) Comparison {
	return Comparison{
		Against: against.Commit,
		Result: DeltaReport{
			Get:    ComputeDelta(current.Get, against.Report.Get),
			Set:    ComputeDelta(current.Set, against.Report.Set),
			Update: ComputeDelta(current.Update, against.Report.Update),
		},
	}
}

// CompareBoth returns the comparison against next followed by the comparison
// against release.
func CompareBoth(current Report, next, release Baseline) []Comparison {
	return []Comparison{
		Compare(current, next),
		Compare(current, release),
	}
}

func (c Comparison) String() string {
	return fmt.Sprintf("v/s %s: get %s, set %s, update %s",
		c.Against, c.Result.Get, c.Result.Set, c.Result.Update)
}
