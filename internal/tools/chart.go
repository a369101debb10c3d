package tools

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rahul/insightforge/internal/dataset"
	"github.com/rahul/insightforge/internal/observability"
)

const (
	ChartLine = "line"
	ChartBar  = "bar"

	maxLabelWidth = 20
	maxChartRows  = 30
)

// RenderError explains why a chart was skipped.
type RenderError struct {
	Reason string
}

func (e *RenderError) Error() string {
	return "plot skipped: " + e.Reason
}

// ChartRequest is one chart to draw.
type ChartRequest struct {
	Kind  string
	Table *dataset.Table
	X     string
	Y     string
	Title string
}

// ChartRenderer draws horizontal text charts.
type ChartRenderer struct {
	Out   io.Writer
	Width int // 0 uses the terminal width
}

func NewChartRenderer(out io.Writer) *ChartRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &ChartRenderer{Out: out}
}

func (c *ChartRenderer) Name() string {
	return "plot"
}

func (c *ChartRenderer) Description() string {
	return "Draw a line or bar chart of a table produced by an earlier sql step."
}

func (c *ChartRenderer) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"kind":        map[string]any{"type": "string", "enum": []string{ChartLine, ChartBar}},
			"x":           map[string]any{"type": "string", "description": "Column for the labels"},
			"y":           map[string]any{"type": "string", "description": "Numeric column to chart"},
			"title":       map[string]any{"type": "string"},
			"data_source": map[string]any{"type": "string", "description": "Name of the sql step whose table to chart"},
		},
	}
}

type point struct {
	label string
	value float64
}

// Render draws the chart. A skipped chart prints a notice and returns a
// *RenderError.
func (c *ChartRenderer) Render(ctx context.Context, req ChartRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	points, rerr := c.points(req)
	if rerr != nil {
		fmt.Fprintf(c.Out, "Plot skipped: %s\n", rerr.Reason)
		return rerr
	}

	var b strings.Builder
	if req.Title != "" {
		b.WriteString(req.Title + "\n")
	}
	c.draw(&b, req.Kind, points)
	_, werr := io.WriteString(c.Out, b.String())
	return werr
}

func (c *ChartRenderer) points(req ChartRequest) ([]point, *RenderError) {
	t := req.Table
	if t.Empty() {
		return nil, &RenderError{Reason: "empty table"}
	}

	kind := req.Kind
	if kind == "" {
		kind = ChartLine
	}
	if kind != ChartLine && kind != ChartBar {
		return nil, &RenderError{Reason: fmt.Sprintf("unsupported chart kind %q", kind)}
	}

	y := req.Y
	if !t.HasColumn(y) {
		if !t.HasColumn("revenue") {
			return nil, &RenderError{Reason: fmt.Sprintf("column %q not found", y)}
		}
		fmt.Fprintf(c.Out, "y=%s missing, using 'revenue'\n", y)
		y = "revenue"
	}

	x := req.X
	if kind == ChartLine && !t.HasColumn(x) && t.HasColumn("date") {
		x = "date"
	}

	yvals, _ := t.Column(y)
	xvals, hasX := t.Column(x)

	points := make([]point, 0, len(yvals))
	for i, v := range yvals {
		f, ok := dataset.ToFloat(v)
		if !ok {
			if v == nil {
				continue
			}
			return nil, &RenderError{Reason: fmt.Sprintf("column %q is not numeric", y)}
		}
		label := strconv.Itoa(i)
		if hasX {
			label = dataset.FormatValue(xvals[i])
		}
		points = append(points, point{label: label, value: f})
	}
	if len(points) == 0 {
		return nil, &RenderError{Reason: fmt.Sprintf("column %q has no values", y)}
	}

	if kind == ChartBar {
		points = groupSum(points)
	}
	return points, nil
}

// groupSum sums values per label, largest first.
func groupSum(points []point) []point {
	idx := make(map[string]int)
	var out []point
	for _, p := range points {
		if i, ok := idx[p.label]; ok {
			out[i].value += p.value
			continue
		}
		idx[p.label] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].value > out[j].value })
	return out
}

func (c *ChartRenderer) draw(b *strings.Builder, kind string, points []point) {
	if len(points) > maxChartRows {
		points = points[:maxChartRows]
	}

	labelW := 1
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		if w := runewidth.StringWidth(p.label); w > labelW {
			labelW = w
		}
		minV = math.Min(minV, p.value)
		maxV = math.Max(maxV, p.value)
	}
	if labelW > maxLabelWidth {
		labelW = maxLabelWidth
	}

	width := c.Width
	if width <= 0 {
		width = observability.TermWidth()
	}
	plotW := width - labelW - 16
	if plotW < 10 {
		plotW = 10
	}

	for _, p := range points {
		label := runewidth.FillRight(runewidth.Truncate(p.label, labelW, "…"), labelW)
		var mark string
		if kind == ChartBar {
			n := 0
			if maxV > 0 && p.value > 0 {
				n = int(math.Round(p.value / maxV * float64(plotW)))
			}
			mark = strings.Repeat("█", n)
		} else {
			pos := 0
			if maxV > minV {
				pos = int(math.Round((p.value - minV) / (maxV - minV) * float64(plotW-1)))
			}
			mark = strings.Repeat(" ", pos) + "•"
		}
		fmt.Fprintf(b, "%s │%s %s\n", label, mark, strconv.FormatFloat(p.value, 'f', 2, 64))
	}
}
