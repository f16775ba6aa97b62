package simulation

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"go.viam.com/collide/collision"
)

// Report is the outcome of a run.
type Report struct {
	Ticks         int
	Events        []Event
	StepDurations []time.Duration
}

// Timing summarizes step durations.
type Timing struct {
	Mean, Median, P95, Max time.Duration
}

// Counts returns the number of events of each kind.
func (rep Report) Counts() map[collision.Transition]int {
	return lo.CountValuesBy(rep.Events, func(e Event) collision.Transition { return e.Kind })
}

// Pairs returns every unordered pair of names that entered a collision, in order of first contact.
func (rep Report) Pairs() []string {
	entered := lo.Filter(rep.Events, func(e Event, _ int) bool {
		return e.Kind == collision.Enter && e.Self < e.Other
	})
	return lo.Uniq(lo.Map(entered, func(e Event, _ int) string { return e.Self + "/" + e.Other }))
}

// Timing computes step duration statistics. It fails when no step ran.
func (rep Report) Timing() (Timing, error) {
	data := stats.Float64Data(lo.Map(rep.StepDurations, func(d time.Duration, _ int) float64 { return float64(d) }))
	mean, err := data.Mean()
	if err != nil {
		return Timing{}, err
	}
	median, err := data.Median()
	if err != nil {
		return Timing{}, err
	}
	p95, err := stats.PercentileNearestRank(data, 95)
	if err != nil {
		return Timing{}, err
	}
	maxDur, err := data.Max()
	if err != nil {
		return Timing{}, err
	}
	return Timing{
		Mean:   time.Duration(mean),
		Median: time.Duration(median),
		P95:    time.Duration(p95),
		Max:    time.Duration(maxDur),
	}, nil
}

// String prints a table of every event followed by totals and step timing.
func (rep Report) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Tick", "Self", "Other", "Kind", "Depth", "Normal"})
	for i, e := range rep.Events {
		normal := e.Contact.Normal
		t.AppendRow(table.Row{
			i + 1,
			e.Tick,
			e.Self,
			e.Other,
			e.Kind.String(),
			fmt.Sprintf("%.4f", e.Contact.Depth),
			fmt.Sprintf("X:%.2f, Y:%.2f, Z:%.2f", normal.X, normal.Y, normal.Z),
		})
	}
	counts := rep.Counts()
	t.AppendFooter(table.Row{
		"", rep.Ticks, "", "",
		fmt.Sprintf("enter:%d stay:%d exit:%d", counts[collision.Enter], counts[collision.Stay], counts[collision.Exit]),
		"", "",
	})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n")
	if timing, err := rep.Timing(); err == nil {
		fmt.Fprintf(&sb, "step time: mean %v, median %v, p95 %v, max %v\n", timing.Mean, timing.Median, timing.P95, timing.Max)
	} else {
		sb.WriteString("step time: no steps\n")
	}
	return sb.String()
}
