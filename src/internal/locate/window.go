package locate

import "time"

// Window is the span during which one run of a batch was executing.
type Window struct {
	Start time.Time
	End   time.Time
}

// within reports whether a log last modified at m was written during run i.
// Coarse filesystem timestamps may round m down, so the lower bound is the
// start second, but never at or before the end of the previous run.
func within(windows []Window, i int, m time.Time) bool {
	w := windows[i]
	if m.After(w.End) {
		return false
	}
	lo := w.Start.Truncate(time.Second)
	if i > 0 && !lo.After(windows[i-1].End) {
		return m.After(windows[i-1].End)
	}
	return !m.Before(lo)
}

// duringRuns picks, for each run, the newest candidate written while that run
// was executing. Runs that wrote nothing get an empty path.
func duringRuns(cands []candidate, windows []Window) []string {
	paths := make([]string, len(windows))
	for i := range windows {
		for _, c := range cands {
			if within(windows, i, c.modTime) {
				paths[i] = c.path
				break
			}
		}
	}
	return paths
}
