// Package report renders the artifacts of a bench run. Every renderer is a
// pure function of its Input, so identical inputs give identical bytes.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"skyreport/internal/benchmark"
)

// DefaultTitle heads every Markdown report unless configured otherwise.
const DefaultTitle = "Skyreport"

// summaryLabels names the comparisons by position.
var summaryLabels = []string{string(benchmark.SlotNext), string(benchmark.SlotRelease)}

// Links are the URL prefixes used in the Meta section.
type Links struct {
	CommitBaseURL string
	PRBaseURL     string
}

// Input is everything a report is rendered from.
type Input struct {
	Title       string
	Current     benchmark.Report
	Comparisons []benchmark.Comparison
	// Commit is the ref the run was triggered for.
	Commit string
	// ResolvedCommit is the hash the workspace actually built.
	ResolvedCommit string
	PullRequest    string
	Links          Links
}

// Raw returns the machine-readable form of in.
func (in Input) Raw() benchmark.RawReport {
	results := in.Comparisons
	if results == nil {
		results = []benchmark.Comparison{}
	}
	return benchmark.RawReport{
		Commit:  in.Commit,
		PR:      in.PullRequest,
		Raw:     in.Current,
		Results: results,
	}
}

// RenderJSON renders the raw report as indented JSON.
func RenderJSON(in Input) ([]byte, error) {
	data, err := json.MarshalIndent(in.Raw(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderMarkdown renders the human-readable report.
func RenderMarkdown(in Input) []byte {
	var b bytes.Buffer

	title := in.Title
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintf(&b, "# %s\n", title)

	b.WriteString("## Meta\n")
	commit := in.ResolvedCommit
	if commit == "" {
		commit = in.Commit
	}
	writeList(&b,
		fmt.Sprintf("Commit: [%s](%s/%s)", commit, in.Links.CommitBaseURL, commit),
		fmt.Sprintf("Pull request: [%s](%s/%s)", in.PullRequest, in.Links.PRBaseURL, in.PullRequest),
	)

	b.WriteString("## Summary\n")
	for i, c := range in.Comparisons {
		label := "baseline"
		if i < len(summaryLabels) {
			label = summaryLabels[i]
		}
		writeNestedList(&b, fmt.Sprintf("v/s %s (%s)", label, c.Against),
			"**GET**: "+c.Result.Get.String(),
			"**SET**: "+c.Result.Set.String(),
			"**UPDATE**: "+c.Result.Update.String(),
		)
	}

	b.WriteString("## Raw Result\n")
	writeList(&b,
		"**GET**: "+FormatStat(in.Current.Get),
		"**SET**: "+FormatStat(in.Current.Set),
		"**UPDATE**: "+FormatStat(in.Current.Update),
	)

	return b.Bytes()
}

// FormatStat renders a throughput value with the shortest exact decimal form.
func FormatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeList(b *bytes.Buffer, items ...string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}

func writeNestedList(b *bytes.Buffer, title string, items ...string) {
	b.WriteString("- ")
	b.WriteString(title)
	b.WriteByte('\n')
	for _, item := range items {
		b.WriteString("  - ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}
