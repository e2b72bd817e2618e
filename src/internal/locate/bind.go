package locate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/experiment"
)

// Binding pairs configuration Index (0-based) with the log of its run.
// Path is empty when no log was found for it.
type Binding struct {
	Index  int
	Config experiment.Configuration
	Path   string
}

// HasLog reports whether the binding found a log.
func (b Binding) HasLog() bool { return b.Path != "" }

// Bind pairs configurations with paths by position. Missing trailing paths
// leave bindings empty; surplus paths are dropped.
func Bind(configs []experiment.Configuration, paths []string) []Binding {
	out := make([]Binding, len(configs))
	for i, cfg := range configs {
		out[i] = Binding{Index: i, Config: cfg}
		if i < len(paths) {
			out[i].Path = paths[i]
		}
	}
	return out
}

// byKey returns, per configuration, the log of the slot whose folder name is
// the rendered bind key or ends with "_" followed by it.
func byKey(configs []experiment.Configuration, l experiment.Logs, slots []Slot) ([]string, error) {
	paths := make([]string, len(configs))
	for i, cfg := range configs {
		key, err := l.BindKeyFor(cfg)
		if err != nil {
			return nil, err
		}
		for _, s := range slots {
			base := filepath.Base(s.Dir)
			if base == key || strings.HasSuffix(base, "_"+key) {
				paths[i] = s.Path
				break
			}
		}
	}
	return paths, nil
}

// chronological reverses a newest-first list.
func chronological(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[len(paths)-1-i] = p
	}
	return out
}

// Find locates the logs of exp and binds them to its configurations.
//
// In latest mode the newest matches are taken oldest-first: the driver runs
// configurations in order, so the i-th launched run belongs to configuration
// i. In per-subfolder mode subfolder i belongs to configuration i whether or
// not earlier subfolders held a log, unless the experiment sets a bind key,
// which matches subfolders by name instead.
//
// windows, when non-nil, holds the span of each run of the batch that was
// just simulated, one per configuration. Configuration i is then only bound
// to a log written during run i, so a run that wrote nothing leaves its
// configuration without a log instead of picking up an older one. Explicit
// file lists ignore windows.
//
// ErrNoLogs is returned when no configuration found a log.
func Find(exp *experiment.Experiment, windows []Window, logger *slog.Logger) ([]Binding, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if windows != nil && len(windows) != len(exp.Configurations) {
		return nil, fmt.Errorf("%d run windows for %d configurations", len(windows), len(exp.Configurations))
	}
	l := exp.Logs

	var paths []string
	switch l.Mode {
	case experiment.LocateExplicit:
		paths = Explicit(l.InputDir, l.Files)
	case experiment.LocateLatest:
		if windows != nil {
			cands, err := newestCandidates(filepath.Join(l.InputDir, l.Prefix+"*"+l.Suffix))
			if err != nil {
				return nil, err
			}
			paths = duringRuns(cands, windows)
			break
		}
		newest, err := Latest(l.InputDir, l.Prefix, l.Suffix, l.Count)
		if err != nil {
			return nil, err
		}
		paths = chronological(newest)
	case experiment.LocatePerSubfolder:
		limit := l.Limit
		if l.BindKey != "" {
			limit = 0
		}
		slots, err := PerSubfolder(l.InputDir, l.Pattern, limit, logger)
		if err != nil {
			return nil, err
		}
		if l.BindKey != "" {
			paths, err = byKey(exp.Configurations, l, slots)
			if err != nil {
				return nil, err
			}
		} else {
			paths = make([]string, len(slots))
			for i, s := range slots {
				paths[i] = s.Path
			}
		}
		if windows != nil {
			if err := dropStale(paths, windows, logger); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unknown locate mode %q", l.Mode)
	}

	if len(paths) > len(exp.Configurations) {
		logger.Warn("more logs than configurations, ignoring the rest",
			"logs", len(paths), "configurations", len(exp.Configurations))
	}
	bindings := Bind(exp.Configurations, paths)

	found := 0
	for _, b := range bindings {
		if b.HasLog() {
			found++
			logger.Debug("bound run log", "run", b.Index+1, "path", b.Path)
		} else if windows != nil && l.Mode != experiment.LocateExplicit {
			logger.Warn("no log written during run", "run", b.Index+1, "config", b.Config.String())
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoLogs, l.InputDir)
	}
	if found < len(bindings) {
		logger.Warn("some configurations have no log", "found", found, "configurations", len(bindings))
	}
	return bindings, nil
}

// dropStale clears the paths not written during the run of the same index.
func dropStale(paths []string, windows []Window, logger *slog.Logger) error {
	for i, p := range paths {
		if p == "" || i >= len(windows) {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if !within(windows, i, info.ModTime()) {
			logger.Warn("log predates run, ignoring it", "run", i+1, "path", p)
			paths[i] = ""
		}
	}
	return nil
}
