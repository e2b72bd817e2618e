package experiment

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

// Load reads, parses and validates an experiment file.
func Load(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file %s: %w", path, err)
	}
	exp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse experiment file %s: %w", path, err)
	}
	return exp, nil
}

// Parse decodes an experiment from YAML, applies defaults and validates it.
func Parse(data []byte) (*Experiment, error) {
	var exp Experiment
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	exp.ApplyDefaults()
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	return &exp, nil
}

// Marshal renders an experiment as YAML.
func Marshal(e *Experiment) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return nil, fmt.Errorf("failed to marshal experiment: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal experiment: %w", err)
	}
	return buf.Bytes(), nil
}

// Validate checks that the experiment is internally consistent.
func (e *Experiment) Validate() error {
	if len(e.Configurations) == 0 {
		return fmt.Errorf("at least one configuration must be defined")
	}
	if e.Simulator != nil {
		if err := e.validateSimulator(); err != nil {
			return fmt.Errorf("simulator validation failed: %w", err)
		}
	}
	if err := e.validateLogs(); err != nil {
		return fmt.Errorf("logs validation failed: %w", err)
	}
	if err := e.validatePlot(); err != nil {
		return fmt.Errorf("plot validation failed: %w", err)
	}
	return nil
}

func (e *Experiment) validateSimulator() error {
	s := e.Simulator
	if len(s.Command) == 0 || s.Command[0] == "" {
		return fmt.Errorf("command cannot be empty")
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %v", s.Timeout)
	}
	for i, cfg := range e.Configurations {
		for _, fb := range s.Flags {
			if fb.Flag == "" {
				return fmt.Errorf("flag binding for parameter %s has an empty flag", fb.Param)
			}
			if _, ok := cfg.Param(fb.Param); !ok {
				return fmt.Errorf("configuration %d: flag %s references unknown parameter %s", i+1, fb.Flag, fb.Param)
			}
		}
		for _, eb := range s.Env {
			if eb.Name == "" {
				return fmt.Errorf("env binding for parameter %s has an empty name", eb.Param)
			}
			if _, ok := cfg.Param(eb.Param); !ok {
				return fmt.Errorf("configuration %d: env %s references unknown parameter %s", i+1, eb.Name, eb.Param)
			}
		}
	}
	return nil
}

func (e *Experiment) validateLogs() error {
	l := e.Logs
	switch l.Header {
	case runlog.Exact, runlog.Loose:
	default:
		return fmt.Errorf("invalid header policy: %s (must be exact or loose)", l.Header)
	}
	switch l.MissingLog {
	case MissingSkip, MissingFail:
	default:
		return fmt.Errorf("invalid missing_log policy: %s (must be skip or fail)", l.MissingLog)
	}
	switch l.Mode {
	case LocateExplicit:
		// Files may still be supplied on the command line.
	case LocateLatest:
		if l.InputDir == "" {
			return fmt.Errorf("input_dir is required for mode %s", l.Mode)
		}
		if l.Count <= 0 {
			return fmt.Errorf("count must be positive, got %d", l.Count)
		}
	case LocatePerSubfolder:
		if l.InputDir == "" {
			return fmt.Errorf("input_dir is required for mode %s", l.Mode)
		}
		if l.Pattern == "" {
			return fmt.Errorf("pattern is required for mode %s", l.Mode)
		}
		if l.Limit <= 0 {
			return fmt.Errorf("limit must be positive, got %d", l.Limit)
		}
		if l.BindKey != "" {
			keys := make(map[string]int)
			for i, cfg := range e.Configurations {
				key, err := l.BindKeyFor(cfg)
				if err != nil {
					return fmt.Errorf("configuration %d: %w", i+1, err)
				}
				if j, dup := keys[key]; dup {
					return fmt.Errorf("configurations %d and %d share bind key %s", j+1, i+1, key)
				}
				keys[key] = i
			}
		}
	default:
		return fmt.Errorf("invalid mode: %s (must be explicit, latest, or per_subfolder)", l.Mode)
	}
	if l.BindKey != "" && l.Mode != LocatePerSubfolder {
		return fmt.Errorf("bind_key only applies to mode %s", LocatePerSubfolder)
	}
	return nil
}

func (e *Experiment) validatePlot() error {
	p := e.Plot
	if p.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}
	if p.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", p.DPI)
	}
	if len(p.Palette) < len(e.Configurations) {
		return fmt.Errorf("palette has %d colours for %d configurations", len(p.Palette), len(e.Configurations))
	}
	switch p.Goal.Mode {
	case GoalOrigin, GoalFixed:
	default:
		return fmt.Errorf("invalid goal mode: %s (must be origin or fixed)", p.Goal.Mode)
	}
	if p.Convergence != nil && p.Convergence.Threshold <= 0 {
		return fmt.Errorf("convergence threshold must be positive, got %v", p.Convergence.Threshold)
	}
	files := make(map[string]bool)
	for i, f := range p.Figures {
		switch f.Kind {
		case FigureTrajectory, FigureLinearVelocity, FigureAngularVelocity,
			FigureControlInputs, FigureTrackingError, FigureAccumulatedCost:
		default:
			return fmt.Errorf("figure %d: unknown kind %q", i+1, f.Kind)
		}
		if f.File == "" {
			return fmt.Errorf("figure %d (%s): file cannot be empty", i+1, f.Kind)
		}
		if files[f.File] {
			return fmt.Errorf("figure %d: duplicate file %s", i+1, f.File)
		}
		files[f.File] = true
		if f.Width <= 0 || f.Height <= 0 {
			return fmt.Errorf("figure %d (%s): size must be positive", i+1, f.Kind)
		}
	}
	return nil
}
