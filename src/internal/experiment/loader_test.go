package experiment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

const sampleExperiment = `
name: lqr-sweep
simulator:
  command: [python3, PRESET_3wrobot_NI.py]
  base_args: [--ctrl_mode, lqr]
  flags:
    - {flag: --Q, param: Q}
  env:
    - {name: Q_VALS, param: Q}
  timeout: 90s
configurations:
  - Q: [50.0, 55.0, 80.0]
  - Q: [2.0, 3.0, 1.0]
logs:
  mode: latest
  input_dir: simdata/lqr
  prefix: 3wrobotNI_lqr_
  suffix: __run01.csv
plot:
  palette: [black, pink]
  figures:
    - {kind: trajectory, file: traj.png, title: Trajectory}
`

func TestParseAppliesDefaults(t *testing.T) {
	exp, err := Parse([]byte(sampleExperiment))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if exp.Logs.Count != 2 {
		t.Errorf("Count = %d, want 2 (one per configuration)", exp.Logs.Count)
	}
	if exp.Logs.Header != runlog.Loose {
		t.Errorf("Header = %s, want loose", exp.Logs.Header)
	}
	if exp.Logs.MissingLog != MissingSkip {
		t.Errorf("MissingLog = %s, want skip", exp.Logs.MissingLog)
	}
	if exp.Plot.OutputDir != "simdata/lqr" {
		t.Errorf("OutputDir = %s, want input dir", exp.Plot.OutputDir)
	}
	if exp.Plot.DPI != DefaultDPI {
		t.Errorf("DPI = %v, want %v", exp.Plot.DPI, DefaultDPI)
	}
	if exp.Simulator.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", exp.Simulator.Timeout)
	}
	f := exp.Plot.Figures[0]
	if f.Width != DefaultFigureSize || f.Height != DefaultFigureSize {
		t.Errorf("figure size = %vx%v, want defaults", f.Width, f.Height)
	}
	if exp.Plot.Goal.Mode != GoalOrigin {
		t.Errorf("Goal = %s, want origin", exp.Plot.Goal.Mode)
	}
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{"unknown flag param", func(s string) string {
			return strings.Replace(s, "{flag: --Q, param: Q}", "{flag: --Q, param: P}", 1)
		}, "unknown parameter P"},
		{"bad header policy", func(s string) string {
			return strings.Replace(s, "mode: latest", "mode: latest\n  header: fuzzy", 1)
		}, "invalid header policy"},
		{"bad mode", func(s string) string {
			return strings.Replace(s, "mode: latest", "mode: newest", 1)
		}, "invalid mode"},
		{"short palette", func(s string) string {
			return strings.Replace(s, "[black, pink]", "[black]", 1)
		}, "palette has 1 colours"},
		{"unknown figure", func(s string) string {
			return strings.Replace(s, "kind: trajectory", "kind: heatmap", 1)
		}, "unknown kind"},
		{"unknown field", func(s string) string {
			return strings.Replace(s, "name: lqr-sweep", "name: lqr-sweep\ncolour: red", 1)
		}, "colour"},
		{"empty command", func(s string) string {
			return strings.Replace(s, "[python3, PRESET_3wrobot_NI.py]", "[]", 1)
		}, "command cannot be empty"},
		{"bind key outside per_subfolder", func(s string) string {
			return strings.Replace(s, "mode: latest", "mode: latest\n  bind_key: Q_{Q}", 1)
		}, "bind_key only applies"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(sampleExperiment)))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	if err := os.WriteFile(path, []byte(sampleExperiment), 0o644); err != nil {
		t.Fatal(err)
	}
	exp, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exp.Name != "lqr-sweep" {
		t.Errorf("Name = %q", exp.Name)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPresetsValidateAndRoundTrip(t *testing.T) {
	for _, name := range PresetNames() {
		t.Run(name, func(t *testing.T) {
			exp, err := Preset(name)
			if err != nil {
				t.Fatalf("Preset: %v", err)
			}
			if err := exp.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			data, err := Marshal(exp)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			back, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse(Marshal(preset)): %v\n%s", err, data)
			}
			if len(back.Configurations) != len(exp.Configurations) {
				t.Fatalf("configurations = %d, want %d", len(back.Configurations), len(exp.Configurations))
			}
			for i := range exp.Configurations {
				if got, want := back.Configurations[i].String(), exp.Configurations[i].String(); got != want {
					t.Errorf("configuration %d = %s, want %s", i+1, got, want)
				}
			}
		})
	}
	if _, err := Preset("pid"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetPoliciesDiffer(t *testing.T) {
	nominal, _ := Preset(PresetNominal)
	lqr, _ := Preset(PresetLQR)
	if nominal.Logs.Header != runlog.Exact || lqr.Logs.Header != runlog.Loose {
		t.Errorf("header policies = %s/%s, want exact/loose", nominal.Logs.Header, lqr.Logs.Header)
	}
	if nominal.Plot.Goal.Mode != GoalFixed || lqr.Plot.Goal.Mode != GoalOrigin {
		t.Errorf("goal modes = %s/%s, want fixed/origin", nominal.Plot.Goal.Mode, lqr.Plot.Goal.Mode)
	}
	if lqr.Plot.Convergence == nil || lqr.Plot.Convergence.Threshold != 0.5 {
		t.Error("lqr preset should check convergence at 0.5")
	}
	mpc, _ := Preset(PresetMPC)
	if mpc.Plot.Convergence != nil {
		t.Error("mpc preset should not check convergence")
	}
}

func TestBindKeyFor(t *testing.T) {
	cfg := NewConfiguration(Scalar("Nactor", Int(20)), Seq("Qf", Ints(10, 10, 1)...))
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{"Nactor_{Nactor}", "Nactor_20", false},
		{"N{Nactor}_Qf{Qf}", "N20_Qf10_10_1", false},
		{"fixed", "fixed", false},
		{"Nactor_{Horizon}", "", true},
		{"Nactor_{Nactor", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := Logs{BindKey: tt.key}.BindKeyFor(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateDuplicateBindKey(t *testing.T) {
	exp, err := Preset(PresetMPC)
	if err != nil {
		t.Fatal(err)
	}
	exp.Configurations[1] = exp.Configurations[0]
	err = exp.Validate()
	if err == nil || !strings.Contains(err.Error(), "share bind key Nactor_5") {
		t.Errorf("err = %v, want a duplicate bind key error", err)
	}
}
