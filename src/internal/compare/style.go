package compare

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// niceTicker places ticks on multiples of 1, 2 or 5 times a power of ten,
// choosing the smallest such step that yields at most maxTicks ticks. Labels
// carry as many decimals as the step needs.
func niceTicker(maxTicks int) plot.Ticker {
	if maxTicks < 2 {
		maxTicks = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: strconv.FormatFloat(min, 'g', 4, 64)}}
		}
		step := niceStep((max - min) / float64(maxTicks-1))
		decimals := 0
		if e := math.Floor(math.Log10(step)); e < 0 {
			decimals = int(-e)
		}
		var ticks []plot.Tick
		for k := math.Ceil(min / step); k*step <= max+step*1e-9; k++ {
			v := k * step
			if v == 0 {
				v = 0 // drop the sign of -0
			}
			ticks = append(ticks, plot.Tick{Value: v, Label: strconv.FormatFloat(v, 'f', decimals, 64)})
		}
		return ticks
	})
}

// niceStep rounds raw up to the next 1, 2 or 5 times a power of ten.
func niceStep(raw float64) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if raw <= m*mag*(1+1e-9) {
			return m * mag
		}
	}
	return 10 * mag
}

// stylePlot applies the shared look: large title and labels, thick axes,
// at most 10 round-valued ticks per axis, padding around the data.
func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(20)
	p.Title.Padding = vg.Points(12)

	p.X.Label.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Padding = vg.Points(8)
	p.Y.Label.Padding = vg.Points(8)

	p.X.LineStyle.Width = vg.Points(1.8)
	p.Y.LineStyle.Width = vg.Points(1.8)
	p.X.Padding = vg.Points(14)
	p.Y.Padding = vg.Points(14)

	p.X.Tick.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.Length = vg.Points(6)
	p.Y.Tick.Length = vg.Points(6)

	p.X.Tick.Label.Font.Size = vg.Points(12)
	p.Y.Tick.Label.Font.Size = vg.Points(12)

	p.X.Tick.Marker = niceTicker(10)
	p.Y.Tick.Marker = niceTicker(10)

	p.Legend.TextStyle.Font.Size = vg.Points(12)
	p.Legend.Top = true
}

// equalizeAxes widens the shorter axis range so both axes span the same
// distance around their centres. On a square canvas one unit then has the
// same length on both axes.
func equalizeAxes(p *plot.Plot) {
	xSpan := p.X.Max - p.X.Min
	ySpan := p.Y.Max - p.Y.Min
	if math.IsInf(xSpan, 0) || math.IsInf(ySpan, 0) || math.IsNaN(xSpan) || math.IsNaN(ySpan) {
		return
	}
	span := math.Max(xSpan, ySpan)
	xMid := (p.X.Min + p.X.Max) / 2
	yMid := (p.Y.Min + p.Y.Max) / 2
	p.X.Min, p.X.Max = xMid-span/2, xMid+span/2
	p.Y.Min, p.Y.Max = yMid-span/2, yMid+span/2
}

// savePlotPNG renders p to a widthIn x heightIn inch PNG at dpi.
func savePlotPNG(p *plot.Plot, widthIn, heightIn, dpi float64, filename string) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	w := vg.Length(widthIn) * vg.Inch
	h := vg.Length(heightIn) * vg.Inch

	c := vgimg.NewWith(
		vgimg.UseWH(w, h),
		vgimg.UseDPI(int(dpi)),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	bw := bufio.NewWriter(f)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// parseColor accepts an SVG/CSS colour name (case-insensitive) or #rrggbb.
func parseColor(name string) (color.Color, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if c, ok := colornames.Map[n]; ok {
		return c, nil
	}
	if strings.HasPrefix(n, "#") && len(n) == 7 {
		v, err := strconv.ParseUint(n[1:], 16, 32)
		if err == nil {
			return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
	}
	return nil, fmt.Errorf("unknown colour %q", name)
}
