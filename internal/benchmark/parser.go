package benchmark

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	perrors "skyreport/internal/errors"
)

// Stat is one entry of the benchmark client's JSON output.
type Stat struct {
	Name string  `json:"name"`
	Stat float64 `json:"stat"`
}

// expectedOrder is the order sky-bench emits its stats in.
var expectedOrder = [3]string{"GET", "SET", "UPDATE"}

// ParseReport parses the output of the benchmark client, which looks like:
//
//	[{"name":"GET","stat":1234567.89},{"name":"SET","stat":...},{"name":"UPDATE","stat":...}]
//
// Entries are mapped by position: 0 is get, 1 is set and 2 is update. The
// names are not consulted.
func ParseReport(raw []byte) (Report, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Report{}, perrors.Parse("decode stats", fmt.Errorf("empty benchmark output"))
	}

	var stats []Stat
	if err := json.Unmarshal(raw, &stats); err != nil {
		return Report{}, perrors.Parse("decode stats", err)
	}
	if len(stats) < len(expectedOrder) {
		return Report{}, perrors.Parse("decode stats",
			fmt.Errorf("expected at least %d stats, got %d", len(expectedOrder), len(stats)))
	}

	for i, want := range expectedOrder {
		if !strings.EqualFold(stats[i].Name, want) {
			slog.Debug("Benchmark stat name does not match its position",
				"index", i, "name", stats[i].Name, "expected", want)
		}
	}

	r, err := NewReport(stats[0].Stat, stats[1].Stat, stats[2].Stat)
	if err != nil {
		return Report{}, perrors.Parse("validate stats", err)
	}
	return r, nil
}
