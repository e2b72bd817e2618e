// Package experiment describes one batch of simulator runs: the ordered list
// of configurations, how the simulator is launched for each, where the
// resulting logs are found, and which comparison figures are drawn from them.
package experiment

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

// LocateMode selects how run logs are found on disk.
type LocateMode string

const (
	// LocateExplicit uses a fixed list of files.
	LocateExplicit LocateMode = "explicit"
	// LocateLatest picks the newest matches in a single folder.
	LocateLatest LocateMode = "latest"
	// LocatePerSubfolder picks the newest match in each subfolder.
	LocatePerSubfolder LocateMode = "per_subfolder"
)

// GoalMode selects the point tracking error is measured against.
type GoalMode string

const (
	GoalOrigin GoalMode = "origin"
	GoalFixed  GoalMode = "fixed"
)

// MissingLogPolicy decides what happens to a configuration without a log.
type MissingLogPolicy string

const (
	MissingSkip MissingLogPolicy = "skip"
	MissingFail MissingLogPolicy = "fail"
)

// FigureKind names one plotted quantity.
type FigureKind string

const (
	FigureTrajectory      FigureKind = "trajectory"
	FigureLinearVelocity  FigureKind = "linear_velocity"
	FigureAngularVelocity FigureKind = "angular_velocity"
	FigureControlInputs   FigureKind = "control_inputs"
	FigureTrackingError   FigureKind = "tracking_error"
	FigureAccumulatedCost FigureKind = "accumulated_cost"
)

// Experiment is a full batch description.
type Experiment struct {
	Name           string          `yaml:"name"`
	Simulator      *Simulator      `yaml:"simulator,omitempty"`
	Configurations []Configuration `yaml:"configurations"`
	Logs           Logs            `yaml:"logs"`
	Plot           PlotOptions     `yaml:"plot"`
}

// Simulator describes how the external simulator is launched.
type Simulator struct {
	// Command is the executable followed by its fixed leading arguments,
	// e.g. ["python3", "PRESET_3wrobot_NI.py"].
	Command []string `yaml:"command"`
	// Dir is the working directory of the process; empty means inherit.
	Dir string `yaml:"dir,omitempty"`
	// BaseArgs follow Command on every run.
	BaseArgs []string `yaml:"base_args,omitempty"`
	// Flags map configuration parameters to command-line flags. Each flag is
	// followed by every value of its parameter as a separate argument.
	Flags []FlagBinding `yaml:"flags,omitempty"`
	// TrailingArgs come after the per-configuration flags.
	TrailingArgs []string `yaml:"trailing_args,omitempty"`
	// Env maps configuration parameters to environment variables of the
	// child process, valued with the space-joined parameter values.
	Env []EnvBinding `yaml:"env,omitempty"`
	// Timeout bounds a single run; zero waits forever.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// FlagBinding passes a parameter as a command-line flag.
type FlagBinding struct {
	Flag  string `yaml:"flag"`
	Param string `yaml:"param"`
}

// EnvBinding passes a parameter as an environment variable.
type EnvBinding struct {
	Name  string `yaml:"name"`
	Param string `yaml:"param"`
}

// Logs describes where run logs live and how they are read.
type Logs struct {
	Mode     LocateMode `yaml:"mode"`
	InputDir string     `yaml:"input_dir"`

	// Files lists logs for LocateExplicit, relative to InputDir unless absolute.
	Files []string `yaml:"files,omitempty"`

	// Prefix and Suffix bound the file names for LocateLatest.
	Prefix string `yaml:"prefix,omitempty"`
	Suffix string `yaml:"suffix,omitempty"`
	// Count is how many of the newest matches to keep; defaults to the
	// number of configurations.
	Count int `yaml:"count,omitempty"`

	// Pattern is the glob matched inside each subfolder for LocatePerSubfolder.
	Pattern string `yaml:"pattern,omitempty"`
	// Limit caps the number of subfolders considered. It is ignored when
	// BindKey is set.
	Limit int `yaml:"limit,omitempty"`
	// BindKey, when set, binds each configuration to the subfolder whose
	// name ends with the rendered key instead of by position. {Param} is
	// replaced by the parameter's values, e.g. "Nactor_{Nactor}".
	BindKey string `yaml:"bind_key,omitempty"`

	Header     runlog.Policy    `yaml:"header"`
	MissingLog MissingLogPolicy `yaml:"missing_log"`
}

// PlotOptions controls the comparison figures.
type PlotOptions struct {
	OutputDir string `yaml:"output_dir"`
	// Palette holds one named colour per run index.
	Palette []string `yaml:"palette"`
	DPI     float64  `yaml:"dpi,omitempty"`
	Goal    Goal     `yaml:"goal"`
	// Legend lists the parameters shown in detailed legend labels.
	Legend      []LegendParam `yaml:"legend,omitempty"`
	Convergence *Convergence  `yaml:"convergence,omitempty"`
	Figures     []Figure      `yaml:"figures"`
	// Summary is the file name of the per-run summary table; empty disables it.
	Summary string `yaml:"summary,omitempty"`
}

// Goal is the reference point for tracking error.
type Goal struct {
	Mode GoalMode `yaml:"mode"`
	X    float64  `yaml:"x,omitempty"`
	Y    float64  `yaml:"y,omitempty"`
}

// Point returns the goal coordinates.
func (g Goal) Point() (x, y float64) {
	if g.Mode == GoalFixed {
		return g.X, g.Y
	}
	return 0, 0
}

// LegendParam shows a parameter in a legend label, optionally renamed.
type LegendParam struct {
	Param string `yaml:"param"`
	As    string `yaml:"as,omitempty"`
}

// Convergence flags runs whose final tracking error stays above Threshold.
type Convergence struct {
	Threshold float64 `yaml:"threshold"`
}

// Figure is one output chart.
type Figure struct {
	Kind   FigureKind `yaml:"kind"`
	File   string     `yaml:"file"`
	Title  string     `yaml:"title"`
	XLabel string     `yaml:"xlabel,omitempty"`
	YLabel string     `yaml:"ylabel,omitempty"`
	// Width and Height are in inches.
	Width          float64 `yaml:"width,omitempty"`
	Height         float64 `yaml:"height,omitempty"`
	EqualAxes      bool    `yaml:"equal_axes,omitempty"`
	DetailedLegend bool    `yaml:"detailed_legend,omitempty"`
}

const (
	DefaultDPI            = 300
	DefaultFigureSize     = 10.0
	DefaultSubfolderLimit = 3
)

// DefaultPalette is used when an experiment names no colours.
var DefaultPalette = []string{"black", "purple", "pink"}

// ApplyDefaults fills unset fields.
func (e *Experiment) ApplyDefaults() {
	if e.Logs.Header == "" {
		e.Logs.Header = runlog.Loose
	}
	if e.Logs.MissingLog == "" {
		e.Logs.MissingLog = MissingSkip
	}
	if e.Logs.Mode == LocateLatest && e.Logs.Count == 0 {
		e.Logs.Count = len(e.Configurations)
	}
	if e.Logs.Mode == LocatePerSubfolder && e.Logs.Limit == 0 {
		e.Logs.Limit = DefaultSubfolderLimit
	}
	if e.Plot.DPI == 0 {
		e.Plot.DPI = DefaultDPI
	}
	if e.Plot.Goal.Mode == "" {
		e.Plot.Goal.Mode = GoalOrigin
	}
	if len(e.Plot.Palette) == 0 {
		e.Plot.Palette = append([]string(nil), DefaultPalette...)
	}
	if e.Plot.OutputDir == "" {
		e.Plot.OutputDir = e.Logs.InputDir
	}
	for i := range e.Plot.Figures {
		f := &e.Plot.Figures[i]
		if f.Width == 0 {
			f.Width = DefaultFigureSize
		}
		if f.Height == 0 {
			f.Height = DefaultFigureSize
		}
	}
}

// LegendLabel returns the label of run index i (0-based). With detailed set,
// the configured legend parameters follow the run number:
// "Run 2 - Q=[15.0, 15.0, 8.0], R=[1.0, 1.0]".
func (e *Experiment) LegendLabel(i int, detailed bool) string {
	label := "Run " + strconv.Itoa(i+1)
	if !detailed || len(e.Plot.Legend) == 0 || i >= len(e.Configurations) {
		return label
	}
	cfg := e.Configurations[i]
	var parts []string
	for _, lp := range e.Plot.Legend {
		p, ok := cfg.Param(lp.Param)
		if !ok {
			continue
		}
		name := lp.As
		if name == "" {
			name = lp.Param
		}
		parts = append(parts, name+"="+p.Label())
	}
	if len(parts) == 0 {
		return label
	}
	return label + " - " + strings.Join(parts, ", ")
}

// BindKeyFor renders BindKey for cfg. Sequence values are joined with "_".
func (l Logs) BindKeyFor(cfg Configuration) (string, error) {
	var b strings.Builder
	rest := l.BindKey
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("bind_key %q: unclosed {", l.BindKey)
		}
		name := rest[open+1 : open+end]
		p, ok := cfg.Param(name)
		if !ok {
			return "", fmt.Errorf("bind_key %q: unknown parameter %s", l.BindKey, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(strings.Join(p.Args(), "_"))
		rest = rest[open+end+1:]
	}
	return b.String(), nil
}
