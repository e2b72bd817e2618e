package compare

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
)

// Line is one overlaid curve.
type Line struct {
	Label  string
	Color  color.Color
	Dashed bool
	XYs    plotter.XYs
}

// Figure is a chart ready to be rendered.
type Figure struct {
	Spec  experiment.Figure
	Lines []Line
}

// xyPoints pairs xs and ys, dropping samples where either is NaN or infinite.
func xyPoints(xs, ys []float64) plotter.XYs {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		if bad(xs[i]) || bad(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func bad(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// BuildFigure overlays every run's series for spec. palette holds one colour
// per configuration index. Runs without an accumulated objective are left
// out of an accumulated_cost figure.
func BuildFigure(exp *experiment.Experiment, spec experiment.Figure, series []*Series, palette []color.Color) (Figure, error) {
	fig := Figure{Spec: spec}
	for _, s := range series {
		i := s.Run.Index
		if i >= len(palette) {
			return fig, fmt.Errorf("no palette colour for run %d", i+1)
		}
		col := palette[i]
		label := exp.LegendLabel(i, spec.DetailedLegend)

		switch spec.Kind {
		case experiment.FigureTrajectory:
			fig.Lines = append(fig.Lines, Line{Label: label, Color: col, XYs: xyPoints(s.X, s.Y)})
		case experiment.FigureLinearVelocity:
			fig.Lines = append(fig.Lines, Line{Label: label, Color: col, XYs: xyPoints(s.T, s.V)})
		case experiment.FigureAngularVelocity:
			fig.Lines = append(fig.Lines, Line{Label: label, Color: col, XYs: xyPoints(s.T, s.Omega)})
		case experiment.FigureControlInputs:
			fig.Lines = append(fig.Lines,
				Line{Label: "v - " + label, Color: col, XYs: xyPoints(s.T, s.V)},
				Line{Label: "ω - " + label, Color: col, Dashed: true, XYs: xyPoints(s.T, s.Omega)},
			)
		case experiment.FigureTrackingError:
			fig.Lines = append(fig.Lines, Line{Label: label, Color: col, XYs: xyPoints(s.T, s.Error)})
		case experiment.FigureAccumulatedCost:
			if s.Cost == nil {
				continue
			}
			fig.Lines = append(fig.Lines, Line{Label: label, Color: col, XYs: xyPoints(s.T, s.Cost)})
		default:
			return fig, fmt.Errorf("unknown figure kind %q", spec.Kind)
		}
	}
	return fig, nil
}

// Render draws fig and writes it as a PNG to path.
func Render(fig Figure, path string, dpi float64) error {
	p := plot.New()
	p.Title.Text = fig.Spec.Title
	p.X.Label.Text = fig.Spec.XLabel
	p.Y.Label.Text = fig.Spec.YLabel
	stylePlot(p)
	p.Add(plotter.NewGrid())

	for _, ln := range fig.Lines {
		if len(ln.XYs) == 0 {
			continue
		}
		l, err := plotter.NewLine(ln.XYs)
		if err != nil {
			return fmt.Errorf("line %q: %w", ln.Label, err)
		}
		l.LineStyle.Width = vg.Points(2)
		l.LineStyle.Color = ln.Color
		if ln.Dashed {
			l.LineStyle.Dashes = []vg.Length{vg.Points(8), vg.Points(4)}
		}
		p.Add(l)
		p.Legend.Add(ln.Label, l)
	}
	if fig.Spec.EqualAxes {
		equalizeAxes(p)
	}
	return savePlotPNG(p, fig.Spec.Width, fig.Spec.Height, dpi, path)
}
