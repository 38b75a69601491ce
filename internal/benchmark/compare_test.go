package benchmark

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDelta(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		baseline float64
		want     float64
	}{
		{name: "doubled", current: 100, baseline: 50, want: 100},
		{name: "halved", current: 50, baseline: 100, want: -50},
		{name: "unchanged", current: 123.45, baseline: 123.45, want: 0},
		{name: "small improvement", current: 110, baseline: 100, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ComputeDelta(tt.current, tt.baseline)
			assert.True(t, d.Valid)
			assert.InDelta(t, tt.want, d.Value, 1e-9)
		})
	}
}

func TestComputeDelta_SameValueIsZero(t *testing.T) {
	for _, x := range []float64{1, 0.5, 42, 1e9, 398276.52} {
		d := ComputeDelta(x, x)
		assert.True(t, d.Valid)
		assert.Equal(t, 0.0, d.Value, "x=%v", x)
	}
}

func TestComputeDelta_ZeroBaseline(t *testing.T) {
	d := ComputeDelta(100, 0)
	assert.False(t, d.Valid)
	assert.Equal(t, "n/a", d.String())

	d = ComputeDelta(0, 0)
	assert.False(t, d.Valid)
}

func TestCompare_ReleaseBaseline(t *testing.T) {
	release := Baseline{Commit: "v0.7.0", Report: Report{Get: 100, Set: 100, Update: 100}}
	current := Report{Get: 110, Set: 90, Update: 100}

	c := Compare(current, release)

	assert.Equal(t, "v0.7.0", c.Against)
	assert.InDelta(t, 10.0, c.Result.Get.Value, 1e-9)
	assert.InDelta(t, -10.0, c.Result.Set.Value, 1e-9)
	assert.InDelta(t, 0.0, c.Result.Update.Value, 1e-9)
	assert.True(t, c.Result.Get.Valid && c.Result.Set.Valid && c.Result.Update.Valid)
}

func TestCompare_ZeroMetricOnlyInvalidatesItself(t *testing.T) {
	baseline := Baseline{Commit: "abc", Report: Report{Get: 100, Set: 0, Update: 50}}
	current := Report{Get: 150, Set: 10, Update: 25}

	c := Compare(current, baseline)

	assert.True(t, c.Result.Get.Valid)
	assert.InDelta(t, 50.0, c.Result.Get.Value, 1e-9)
	assert.False(t, c.Result.Set.Valid)
	assert.True(t, c.Result.Update.Valid)
	assert.InDelta(t, -50.0, c.Result.Update.Value, 1e-9)
}

func TestCompareBoth_Order(t *testing.T) {
	next := Baseline{Commit: "deadbeef", Report: Report{Get: 1, Set: 1, Update: 1}}
	release := Baseline{Commit: "v0.8.0", Report: Report{Get: 2, Set: 2, Update: 2}}

	comps := CompareBoth(Report{Get: 2, Set: 2, Update: 2}, next, release)

	require.Len(t, comps, 2)
	assert.Equal(t, "deadbeef", comps[0].Against)
	assert.Equal(t, "v0.8.0", comps[1].Against)
	assert.InDelta(t, 100.0, comps[0].Result.Get.Value, 1e-9)
	assert.InDelta(t, 0.0, comps[1].Result.Get.Value, 1e-9)
}

func TestDelta_JSON(t *testing.T) {
	dr := DeltaReport{
		Get:    Delta{Value: 10, Valid: true},
		Set:    Delta{},
		Update: Delta{Value: -2.5, Valid: true},
	}

	data, err := json.Marshal(dr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"get":10,"set":null,"update":-2.5}`, string(data))

	var back DeltaReport
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, dr, back)
}

func TestDelta_String(t *testing.T) {
	assert.Equal(t, "+10.00%", Delta{Value: 10, Valid: true}.String())
	assert.Equal(t, "-9.99%", Delta{Value: -9.9949, Valid: true}.String())
	assert.Equal(t, "+0.00%", Delta{Value: -0.001, Valid: true}.String())
}
