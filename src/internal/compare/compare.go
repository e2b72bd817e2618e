// Package compare overlays the runs of one experiment on shared axes, one
// chart per plotted quantity, and summarises each run.
package compare

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
	"github.com/mohammadijoo/robot_sweep_go/src/internal/locate"
	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

// ErrMissingLog is returned under the fail policy when a configuration has
// no log.
var ErrMissingLog = errors.New("configuration has no run log")

// Report lists what a plotting pass produced.
type Report struct {
	Files     []string
	Diverging []Divergence
	// Skipped holds configuration indexes that had no log.
	Skipped []int
	Stats   []RunStats
}

// Plotter reads bound run logs and draws the comparison figures.
type Plotter struct {
	Logger *slog.Logger
}

// New returns a Plotter logging to logger, or to slog.Default when nil.
func New(logger *slog.Logger) *Plotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Plotter{Logger: logger}
}

func (p *Plotter) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Load reads the log of every binding with the experiment's header policy.
// A binding without a log is skipped or fails the pass depending on the
// missing_log policy. A log without a header row fails the pass.
func (p *Plotter) Load(exp *experiment.Experiment, bindings []locate.Binding) ([]Run, []int, error) {
	var runs []Run
	var skipped []int
	for _, b := range bindings {
		if !b.HasLog() {
			if exp.Logs.MissingLog == experiment.MissingFail {
				return nil, nil, fmt.Errorf("run %d (%s): %w", b.Index+1, b.Config.String(), ErrMissingLog)
			}
			p.logger().Warn("skipping configuration without a log", "run", b.Index+1, "config", b.Config.String())
			skipped = append(skipped, b.Index)
			continue
		}
		tbl, err := runlog.Read(b.Path, exp.Logs.Header)
		if err != nil {
			return nil, nil, fmt.Errorf("run %d: %w", b.Index+1, err)
		}
		p.logger().Debug("read run log", "run", b.Index+1, "path", b.Path, "samples", tbl.Len())
		runs = append(runs, Run{Index: b.Index, Path: b.Path, Table: tbl})
	}
	return runs, skipped, nil
}

// Palette resolves the experiment's colour names.
func Palette(exp *experiment.Experiment) ([]color.Color, error) {
	out := make([]color.Color, len(exp.Plot.Palette))
	for i, name := range exp.Plot.Palette {
		c, err := parseColor(name)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i+1, err)
		}
		out[i] = c
	}
	return out, nil
}

// Plot draws every configured figure for runs into the output directory.
// Figures are independent: a figure that fails does not stop the others,
// and all failures are returned together.
func (p *Plotter) Plot(exp *experiment.Experiment, runs []Run) (*Report, error) {
	log := p.logger()
	palette, err := Palette(exp)
	if err != nil {
		return nil, err
	}
	gx, gy := exp.Plot.Goal.Point()

	series := make([]*Series, 0, len(runs))
	for _, r := range runs {
		s, err := Derive(r, gx, gy)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", r.Index+1, err)
		}
		series = append(series, s)
	}

	report := &Report{}
	if c := exp.Plot.Convergence; c != nil {
		report.Diverging = Diverging(series, c.Threshold)
		for _, d := range report.Diverging {
			log.Warn("run may not converge properly",
				"run", d.Index+1, "final_error", fmt.Sprintf("%.2f m", d.FinalError), "threshold", c.Threshold)
		}
	}

	if err := os.MkdirAll(exp.Plot.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output dir: %w", err)
	}

	var errs error
	for _, spec := range exp.Plot.Figures {
		path := filepath.Join(exp.Plot.OutputDir, spec.File)
		fig, err := BuildFigure(exp, spec, series, palette)
		if err == nil {
			err = Render(fig, path, exp.Plot.DPI)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("figure %s: %w", spec.File, err))
			continue
		}
		log.Debug("figure saved", "kind", spec.Kind, "path", path, "lines", len(fig.Lines))
		report.Files = append(report.Files, path)
	}

	for _, s := range series {
		report.Stats = append(report.Stats, Summarize(s, exp.LegendLabel(s.Run.Index, true)))
	}
	if exp.Plot.Summary != "" {
		path := filepath.Join(exp.Plot.OutputDir, exp.Plot.Summary)
		if err := WriteSummary(path, report.Stats); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			report.Files = append(report.Files, path)
		}
	}
	return report, errs
}

// Run locates, reads and plots the logs of exp in one pass. windows holds the
// span of each run when exp was simulated just before; nil accepts any log.
func (p *Plotter) Run(exp *experiment.Experiment, windows []locate.Window) (*Report, error) {
	bindings, err := locate.Find(exp, windows, p.logger())
	if err != nil {
		return nil, err
	}
	runs, skipped, err := p.Load(exp, bindings)
	if err != nil {
		return nil, err
	}
	report, err := p.Plot(exp, runs)
	if report != nil {
		report.Skipped = skipped
	}
	return report, err
}
