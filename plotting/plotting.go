// plotting
/*
Copyright 2021 Bruce Golden and Matt Spangler

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
of the Software, and to permit persons to whom the Software is furnished to do
so, subject to the following conditions:
The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
// Package plotting draws the channels of a result table as PNG line plots,
// one panel per channel and one line per sweep combination.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/fe-examples/malSweep/table"
)

// Figure size, the same for every panel count.
var (
	Width  = 6 * vg.Inch
	Height = 5 * vg.Inch
)

// Channels plots each channel of tbl against key column x. Rows are split
// into lines by the groupBy keys, averaging rows that share x within a line.
// Panels are laid out two per row.
func Channels(tbl *table.Table, x string, channels []string, groupBy []string, title, path string) error {
	if len(channels) == 0 {
		return fmt.Errorf("plotting: no channels")
	}
	if !tbl.HasKey(x) {
		return fmt.Errorf("plotting: no key column %s", x)
	}
	for _, c := range channels {
		if !tbl.HasChannel(c) {
			return fmt.Errorf("plotting: no channel %s", c)
		}
	}
	for _, g := range groupBy {
		if !tbl.HasKey(g) {
			return fmt.Errorf("plotting: no key column %s", g)
		}
	}
	xs := make([]float64, tbl.Len())
	for i := range xs {
		v, err := coordinate(tbl.Key(i, x))
		if err != nil {
			return fmt.Errorf("plotting: column %s: %w", x, err)
		}
		xs[i] = v
	}

	names, lines := split(tbl, groupBy)
	cols := 1
	if len(channels) > 1 {
		cols = 2
	}
	rows := (len(channels) + cols - 1) / cols
	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, cols)
	}

	for ci, c := range channels {
		p, err := plot.New()
		if err != nil {
			return err
		}
		p.Title.Text = c
		p.X.Label.Text = x
		p.Y.Label.Text = c
		ys := tbl.Column(c)
		for li, name := range names {
			l, err := plotter.NewLine(points(xs, ys, lines[name]))
			if err != nil {
				return fmt.Errorf("plotting: %s %s: %w", c, name, err)
			}
			l.Color = plotutil.Color(li)
			l.Width = vg.Points(0.8)
			p.Add(l)
			if ci == 0 && name != "" {
				p.Legend.Add(name, l)
			}
		}
		p.Y.Min = 0
		if isFraction(c) {
			p.Y.Max = 1
		} else if len(ys) > 0 {
			p.Y.Max = math.Max(floats.Max(ys), 1e-9)
		}
		plots[ci/cols][ci%cols] = p
	}
	for r := range plots {
		for c := range plots[r] {
			if plots[r][c] == nil {
				p, err := plot.New()
				if err != nil {
					return err
				}
				p.HideAxes()
				plots[r][c] = p
			}
		}
	}

	img := vgimg.New(Width, Height)
	dc := draw.New(img)
	if title != "" {
		dc = withTitle(dc, title)
	}
	tiles := draw.Tiles{
		Rows: rows, Cols: cols,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(2), PadBottom: vg.Points(2),
		PadLeft: vg.Points(2), PadRight: vg.Points(2),
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// withTitle writes title across the top of dc and returns the canvas
// below it.
func withTitle(dc draw.Canvas, title string) draw.Canvas {
	font, err := vg.MakeFont(plot.DefaultFont, vg.Points(12))
	if err != nil {
		return dc
	}
	sty := draw.TextStyle{Color: color.Black, Font: font, XAlign: draw.XCenter, YAlign: draw.YTop}
	top := dc.Max.Y
	dc.FillText(sty, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: top}, title)
	dc.Max.Y = top - font.Extents().Height - vg.Points(4)
	return dc
}

// split maps the combined group key of every row to its row indices.
func split(tbl *table.Table, groupBy []string) ([]string, map[string][]int) {
	lines := map[string][]int{}
	var names []string
	for i := 0; i < tbl.Len(); i++ {
		parts := make([]string, len(groupBy))
		for j, g := range groupBy {
			parts[j] = tbl.Key(i, g)
		}
		name := strings.Join(parts, ",")
		if _, ok := lines[name]; !ok {
			names = append(names, name)
		}
		lines[name] = append(lines[name], i)
	}
	return names, lines
}

// points averages the rows of one line at each x and sorts by x.
func points(xs, ys []float64, rows []int) plotter.XYs {
	sum := map[float64]float64{}
	n := map[float64]float64{}
	var order []float64
	for _, i := range rows {
		if _, ok := n[xs[i]]; !ok {
			order = append(order, xs[i])
		}
		sum[xs[i]] += ys[i]
		n[xs[i]]++
	}
	sort.Float64s(order)
	pts := make(plotter.XYs, len(order))
	for i, x := range order {
		pts[i].X = x
		pts[i].Y = sum[x] / n[x]
	}
	return pts
}

// coordinate reads a key cell as a number, or a YYYY-MM-DD date as a
// decimal year.
func coordinate(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a number nor a date", s)
	}
	return float64(t.Year()) + float64(t.YearDay()-1)/365, nil
}

func isFraction(channel string) bool {
	return strings.Contains(channel, "PfPR") || strings.Contains(channel, "Prevalence") ||
		strings.HasSuffix(channel, "_Coverage") || strings.HasSuffix(channel, "_usage")
}
