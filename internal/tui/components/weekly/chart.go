package weekly

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(8)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Point is one labelled value on a chart.
type Point struct {
	Label string
	Value float64
}

// Series maps entries to chart points labelled by date.
func Series(entries []models.Entry, value func(models.Entry) float64) []Point {
	points := make([]Point, 0, len(entries))
	for _, e := range entries {
		label := "?"
		if e.HasDate() {
			label = e.Date.Format(constants.ChartDateFormat)
		}
		points = append(points, Point{Label: label, Value: value(e)})
	}
	return points
}

// BarChart renders one horizontal bar per point, scaled so that max fills
// width cells.
func BarChart(title string, points []Point, max float64, width int, bar lipgloss.Style) string {
	if width < 1 {
		width = 1
	}

	var b strings.Builder
	b.WriteString(chartTitleStyle.Render(title))
	b.WriteString("\n")
	for _, p := range points {
		cells := 0
		if max > 0 {
			cells = int(math.Round(math.Min(p.Value, max) / max * float64(width)))
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render(p.Label),
			bar.Render(strings.Repeat("█", cells)),
			valueStyle.Render(formatValue(p.Value)),
		)
	}
	return b.String()
}

// Sparkline renders values as a single row of block characters.
func Sparkline(values []float64, max float64) string {
	var b strings.Builder
	for _, v := range values {
		i := 0
		if max > 0 {
			i = int(math.Round(math.Min(math.Max(v, 0), max) / max * float64(len(sparkTicks)-1)))
		}
		b.WriteRune(sparkTicks[i])
	}
	return b.String()
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
