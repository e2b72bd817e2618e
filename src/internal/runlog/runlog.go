// Package runlog reads the time-series logs written by the robot simulator.
//
// A log starts with a free-form preamble (system and controller metadata),
// followed by a header row whose first column is the time column, followed by
// comma-separated samples, one row per simulation step.
package runlog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column names written by the simulator.
const (
	ColTime       = "t [s]"
	ColX          = "x [m]"
	ColY          = "y [m]"
	ColV          = "v [m/s]"
	ColOmega      = "omega [rad/s]"
	ColAccumCost  = "accum_obj"
	ExactHeaderID = ColTime + ","
)

// Policy decides which line of a log is the header row. The simulator writes
// slightly different preambles depending on the controller mode, and the two
// experiment families historically matched the header differently; both rules
// are kept as separate named policies.
type Policy string

const (
	// Exact matches a raw line starting with "t [s],".
	Exact Policy = "exact"
	// Loose matches the first line whose trimmed text starts with "t".
	Loose Policy = "loose"
)

// Matches reports whether line is the header row under p.
func (p Policy) Matches(line string) bool {
	switch p {
	case Exact:
		return strings.HasPrefix(line, ExactHeaderID)
	case Loose:
		return strings.HasPrefix(strings.TrimSpace(line), "t")
	}
	return false
}

var (
	// ErrHeaderNotFound is returned when no line of a log matches the header policy.
	ErrHeaderNotFound = errors.New("header row not found")
	// ErrColumnMissing is returned when a requested column is absent.
	ErrColumnMissing = errors.New("column missing")
)

// Table is one parsed run log.
type Table struct {
	// Path is the file the table was read from, if any.
	Path string
	// Columns are the header names with surrounding whitespace removed.
	Columns []string
	// Records are the raw data rows, each with len(Columns) fields.
	Records [][]string
	// HeaderLine is the 1-based line number of the header row.
	HeaderLine int
}

// Read parses the log at path.
func Read(path string, policy Policy) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	t, err := Parse(f, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.Path = path
	return t, nil
}

// Parse reads a log from r. Everything before the header row is skipped.
func Parse(r io.Reader, policy Policy) (*Table, error) {
	if policy != Exact && policy != Loose {
		return nil, fmt.Errorf("unknown header policy %q", policy)
	}

	br := bufio.NewReader(r)
	lineNo := 0
	var header string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lineNo++
			if policy.Matches(line) {
				header = line
				break
			}
		}
		if err == io.EOF {
			return nil, ErrHeaderNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("read preamble: %w", err)
		}
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(header), br))
	cr.TrimLeadingSpace = true

	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header at line %d: %w", lineNo, err)
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}

	t := &Table{Columns: cols, HeaderLine: lineNo}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// Len is the number of samples.
func (t *Table) Len() int { return len(t.Records) }

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	return t.index(name) >= 0
}

func (t *Table) index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a column as floats. Empty cells become NaN.
func (t *Table) Column(name string) ([]float64, error) {
	idx := t.index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrColumnMissing, name)
	}
	out := make([]float64, len(t.Records))
	for i, rec := range t.Records {
		cell := strings.TrimSpace(rec[idx])
		if cell == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", name, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
