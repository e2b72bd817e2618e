package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/driver"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewRootCmdCommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"run", "simulate", "plot", "preset", "emulate", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output = %q", out)
	}
}

func TestPresetCmd(t *testing.T) {
	out, err := execute(t, "preset")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Fields(out); len(got) != 3 || got[0] != "lqr" {
		t.Errorf("preset list = %v", got)
	}

	out, err = execute(t, "preset", "lqr", "--input-dir", "logs/lqr")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"name: lqr", "input_dir: logs/lqr", "output_dir: logs/lqr", "Q: [50.0, 55.0, 80.0]"} {
		if !strings.Contains(out, want) {
			t.Errorf("preset output lacks %q:\n%s", want, out)
		}
	}

	if _, err := execute(t, "preset", "pid"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestLoadExperimentRequiresOneSource(t *testing.T) {
	if _, err := execute(t, "plot"); err == nil || !strings.Contains(err.Error(), "--config") {
		t.Errorf("err = %v, want a missing experiment error", err)
	}
	if _, err := execute(t, "plot", "--preset", "lqr", "--config", "x.yaml"); err == nil {
		t.Error("expected error for --config with --preset")
	}
	if _, err := execute(t, "plot", "--preset", "lqr", "--pattern", "*.csv"); err == nil {
		t.Error("expected error for --pattern outside per_subfolder mode")
	}
}

func TestSimulateWithoutSimulator(t *testing.T) {
	if _, err := execute(t, "simulate", "--preset", "nominal"); err == nil {
		t.Error("expected error for an experiment without a simulator")
	}
}

func TestPlotNoLogs(t *testing.T) {
	tests := []struct {
		name     string
		preset   string
		inputDir string
	}{
		{"lqr empty dir", "lqr", t.TempDir()},
		{"lqr absent dir", "lqr", filepath.Join(t.TempDir(), "absent")},
		{"mpc empty dir", "mpc", t.TempDir()},
		{"mpc absent dir", "mpc", filepath.Join(t.TempDir(), "absent")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, "plot", "--preset", tt.preset, "--input-dir", tt.inputDir)
			if err != nil {
				t.Fatalf("plot: %v", err)
			}
			if !strings.Contains(out, "no log files found for plotting") {
				t.Errorf("output = %q", out)
			}
		})
	}
}

func TestEmulateThenPlot(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i, gains := range [][]string{
		{"2.5", "4.5", "-1.5"},
		{"1.0", "3.0", "-1.0"},
		{"0.5", "6.0", "-0.5"},
	} {
		logDir := filepath.Join(dir, "runs", string(rune('a'+i)))
		out, err := execute(t, "emulate", "--ctrl_mode", "Nominal", "--t1", "2", "--dt", "0.1",
			"--k_rho", gains[0], "--k_alpha", gains[1], "--k_beta", gains[2], "--log_dir", logDir)
		if err != nil {
			t.Fatalf("emulate: %v", err)
		}
		path := strings.TrimSpace(out)
		if filepath.Dir(path) != logDir {
			t.Fatalf("emulate wrote %q, want a file in %s", path, logDir)
		}
		files = append(files, path)
	}

	outDir := filepath.Join(dir, "figures")
	out, err := execute(t, "plot", "--preset", "nominal", "--output-dir", outDir, "--dpi", "20",
		"--file", files[0], "--file", files[1], "--file", files[2])
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if !strings.Contains(out, "plots saved") {
		t.Errorf("output = %q", out)
	}
	pngs, _ := filepath.Glob(filepath.Join(outDir, "*.png"))
	if len(pngs) != 4 {
		t.Errorf("figures = %v, want 4", pngs)
	}
	if _, err := os.Stat(filepath.Join(outDir, "Robot_Trajectories_Kinematics.png")); err != nil {
		t.Errorf("trajectory figure: %v", err)
	}
}

func TestEmulateBadArgs(t *testing.T) {
	if _, err := execute(t, "emulate", "--Q", "1", "2"); err == nil {
		t.Error("expected error for a short --Q")
	}
}

func TestSampleConfigLoads(t *testing.T) {
	cfg := filepath.Join("..", "..", "configs", "lqr_emulated.yaml")
	out, err := execute(t, "plot", "--config", cfg, "--input-dir", t.TempDir())
	if err != nil {
		t.Fatalf("plot --config: %v", err)
	}
	if !strings.Contains(out, "no log files found for plotting") {
		t.Errorf("output = %q", out)
	}
}

func TestRunWindows(t *testing.T) {
	start := time.Date(2025, 6, 22, 17, 0, 0, 0, time.UTC)
	results := []driver.Result{
		{Index: 0, Started: start, Duration: 2 * time.Second},
		{Index: 1, Started: start.Add(3 * time.Second), Duration: time.Second, Err: errors.New("exit status 1")},
	}
	windows := runWindows(results)
	if len(windows) != 2 {
		t.Fatalf("windows = %v", windows)
	}
	if !windows[0].End.Equal(start.Add(2*time.Second)) || !windows[1].Start.Equal(start.Add(3*time.Second)) {
		t.Errorf("windows = %+v", windows)
	}
}
