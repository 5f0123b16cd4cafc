package trainer

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// WriteChart renders an HTML page with the evolution of the training, one point per snapshot:
// the outcome rates of each progress window, and the Q-table sizes.
func WriteChart(w io.Writer, runID string, history []Snapshot) error {
	if len(history) == 0 {
		return errors.New("no training progress to chart")
	}
	episodes := make([]string, len(history))
	var p1Wins, p2Wins, ties []opts.LineData
	var sizes [2][]opts.LineData
	for ii, snapshot := range history {
		episodes[ii] = strconv.FormatInt(snapshot.Episodes, 10)
		p1, p2, t := snapshot.Window.Rates()
		p1Wins = append(p1Wins, opts.LineData{Value: 100 * p1})
		p2Wins = append(p2Wins, opts.LineData{Value: 100 * p2})
		ties = append(ties, opts.LineData{Value: 100 * t})
		for player := range sizes {
			sizes[player] = append(sizes[player], opts.LineData{Value: snapshot.TableSizes[player]})
		}
	}

	outcomes := charts.NewLine()
	outcomes.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Outcomes (%)", Subtitle: "Training run " + runID}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)
	outcomes.SetXAxis(episodes).
		AddSeries("Player 1 wins", p1Wins).
		AddSeries("Player 2 wins", p2Wins).
		AddSeries("Ties", ties)

	tables := charts.NewLine()
	tables.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Q-table sizes"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
	)
	tables.SetXAxis(episodes).
		AddSeries("Player 1", sizes[0]).
		AddSeries("Player 2", sizes[1])

	page := components.NewPage()
	page.AddCharts(outcomes, tables)
	return errors.Wrap(page.Render(w), "failed to render training chart")
}
