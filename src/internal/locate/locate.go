// Package locate finds the run logs produced by a batch and binds each one to
// the configuration that produced it.
package locate

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoLogs is returned when a search selects no log at all.
var ErrNoLogs = errors.New("no log files found")

type candidate struct {
	path    string
	modTime time.Time
}

// newestCandidates globs pattern and orders the matching files by
// modification time, newest first. Matches with equal times keep glob
// (lexical) order.
func newestCandidates(pattern string) ([]candidate, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	cands := make([]candidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		cands = append(cands, candidate{path: m, modTime: info.ModTime()})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].modTime.After(cands[j].modTime)
	})
	return cands, nil
}

// newestFirst is newestCandidates without the times.
func newestFirst(pattern string) ([]string, error) {
	cands, err := newestCandidates(pattern)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.path
	}
	return out, nil
}

// Latest returns up to count files in dir named prefix*suffix, most recently
// modified first. Callers must not rely on the order of files whose
// modification times are equal.
func Latest(dir, prefix, suffix string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	all, err := newestFirst(filepath.Join(dir, prefix+"*"+suffix))
	if err != nil {
		return nil, err
	}
	if len(all) > count {
		all = all[:count]
	}
	return all, nil
}

// Slot is one subfolder considered by PerSubfolder. Path is empty when the
// subfolder holds no matching log.
type Slot struct {
	Dir  string
	Path string
}

// PerSubfolder lists the immediate subdirectories of parent in name order,
// keeps the first limit of them, and picks the newest file matching pattern
// in each. A subfolder without a match is reported on logger and yields a
// Slot with an empty Path so later slots keep their position. A missing
// parent holds no subfolders.
func PerSubfolder(parent, pattern string, limit int, logger *slog.Logger) ([]Slot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(parent)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("log folder does not exist", "dir", parent)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", parent, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	if limit > 0 && len(dirs) > limit {
		dirs = dirs[:limit]
	}

	slots := make([]Slot, 0, len(dirs))
	for _, name := range dirs {
		dir := filepath.Join(parent, name)
		matches, err := newestFirst(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		slot := Slot{Dir: dir}
		if len(matches) > 0 {
			slot.Path = matches[0]
		} else {
			logger.Warn("no matching log", "dir", dir, "pattern", pattern)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Explicit resolves a fixed file list against dir. Absolute paths are kept.
func Explicit(dir string, files []string) []string {
	out := make([]string, len(files))
	for i, f := range files {
		if filepath.IsAbs(f) || dir == "" {
			out[i] = f
		} else {
			out[i] = filepath.Join(dir, f)
		}
	}
	return out
}
