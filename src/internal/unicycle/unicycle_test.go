package unicycle

import (
	"bytes"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohammadijoo/robot_sweep_go/src/internal/runlog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseArgsLQR(t *testing.T) {
	args := strings.Fields("--ctrl_mode lqr --Nruns 1 --t1 20 --is_visualization 0 --is_log_data 1 " +
		"--Q 50.0 55.0 80.0 --R 10.0 10.0 --v_max 1.0 --omega_max 1.0")
	opts, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Mode != "lqr" || opts.NRuns != 1 || opts.T1 != 20 || !opts.LogData {
		t.Errorf("opts = %+v", opts)
	}
	if opts.Q[2] != 80 || opts.R[1] != 10 {
		t.Errorf("Q = %v, R = %v", opts.Q, opts.R)
	}
	g := opts.ControllerGains()
	if want := math.Sqrt(52.5 / 10); math.Abs(g.KRho-want) > 1e-12 {
		t.Errorf("KRho = %v, want %v", g.KRho, want)
	}
	if g.KAlpha <= g.KRho || g.KBeta >= 0 {
		t.Errorf("gains %+v violate KAlpha > KRho > 0 > KBeta", g)
	}
	if got := opts.Dir(); got != filepath.Join("simdata", "lqr", "Init_angle_1.57_seed_1_Nactor_10") {
		t.Errorf("Dir = %s", got)
	}
}

func TestParseArgsMPC(t *testing.T) {
	args := strings.Fields("--ctrl_mode MPC --Nactor 20 --R1_diag 10 10 1 1 0.5 --Qf 10 10 1")
	opts, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if opts.Nactor != 20 {
		t.Errorf("Nactor = %d", opts.Nactor)
	}
	if len(opts.Q) != 3 || opts.Q[2] != 1 || len(opts.R) != 2 || opts.R[1] != 0.5 {
		t.Errorf("Q = %v, R = %v, want stage weights split from R1_diag", opts.Q, opts.R)
	}
	if !strings.HasSuffix(opts.Dir(), "Nactor_20") {
		t.Errorf("Dir = %s, want a Nactor_20 folder", opts.Dir())
	}
}

func TestParseArgsNominalGains(t *testing.T) {
	opts, err := ParseArgs(strings.Fields("--k_rho 2.5 --k_alpha 4.5 --k_beta -1.5"))
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if g := opts.ControllerGains(); g != (Gains{KRho: 2.5, KAlpha: 4.5, KBeta: -1.5}) {
		t.Errorf("gains = %+v", g)
	}
	def, _ := ParseArgs(nil)
	if def.ControllerGains() != DefaultGains {
		t.Errorf("default nominal gains = %+v", def.ControllerGains())
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []string{
		"lqr",
		"--Q 1 2",
		"--R 1 x",
		"--Nruns",
		"--Nruns 0",
		"--t1 -1",
		"--bogus 1",
		"--R 1 0",
		"--dt 50",
	}
	for _, tt := range tests {
		t.Run(tt, func(t *testing.T) {
			if _, err := ParseArgs(strings.Fields(tt)); err == nil {
				t.Errorf("expected error for %q", tt)
			}
		})
	}
}

func TestControl(t *testing.T) {
	if u := Control(DefaultGains, State{}, 1, 1); u != (Input{}) {
		t.Errorf("input at goal = %+v, want zero", u)
	}
	// Facing the goal from (2, 0): drive forward at the speed limit.
	u := Control(DefaultGains, State{X: 2, Alpha: math.Pi}, 0.5, 1)
	if u.V != 0.5 {
		t.Errorf("V = %v, want saturated 0.5", u.V)
	}
	if math.Abs(u.Omega) > 1 {
		t.Errorf("Omega = %v exceeds limit", u.Omega)
	}
}

func TestWrapToPi(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{7 * math.Pi / 2, -math.Pi / 2},
		{-4*math.Pi + 0.25, 0.25},
	}
	for _, tt := range tests {
		got := wrapToPi(tt.in)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("wrapToPi(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSaturate(t *testing.T) {
	tests := []struct{ in, limit, want float64 }{
		{0.3, 1, 0.3},
		{2, 1, 1},
		{-2, 1, -1},
		{-0.5, 0.5, -0.5},
	}
	for _, tt := range tests {
		if got := saturate(tt.in, tt.limit); got != tt.want {
			t.Errorf("saturate(%v, %v) = %v, want %v", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestSimulateApproachesGoal(t *testing.T) {
	opts := DefaultOptions()
	opts.Init = State{X: 2, Y: 0, Alpha: math.Pi}
	opts.T1 = 10
	opts.Dt = 0.05
	samples := Simulate(opts)
	if len(samples) != 201 {
		t.Fatalf("samples = %d, want 201", len(samples))
	}
	if samples[1].T != 0.05 {
		t.Errorf("second sample time = %v", samples[1].T)
	}
	first, last := samples[0], samples[len(samples)-1]
	if d0, d1 := math.Hypot(first.State.X, first.State.Y), math.Hypot(last.State.X, last.State.Y); d1 >= d0 {
		t.Errorf("distance grew from %v to %v", d0, d1)
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].AccumObj < samples[i-1].AccumObj {
			t.Fatalf("accum_obj decreased at sample %d", i)
		}
	}
}

func TestWriteLogIsReadable(t *testing.T) {
	opts := DefaultOptions()
	opts.T1 = 1
	opts.Dt = 0.1
	samples := Simulate(opts)

	var buf bytes.Buffer
	if err := WriteLog(&buf, opts, 1, samples); err != nil {
		t.Fatalf("WriteLog: %v", err)
	}
	for _, policy := range []runlog.Policy{runlog.Exact, runlog.Loose} {
		tbl, err := runlog.Parse(bytes.NewReader(buf.Bytes()), policy)
		if err != nil {
			t.Fatalf("%s: Parse: %v", policy, err)
		}
		if tbl.Len() != len(samples) {
			t.Errorf("%s: rows = %d, want %d", policy, tbl.Len(), len(samples))
		}
		if !tbl.Has(runlog.ColAccumCost) || !tbl.Has(runlog.ColOmega) {
			t.Errorf("%s: columns = %v", policy, tbl.Columns)
		}
	}
}

func TestRunWritesLogs(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Mode = "lqr"
	opts.NRuns = 2
	opts.T1 = 0.5
	opts.Dt = 0.1
	opts.LogDir = dir
	opts.Now = func() time.Time { return time.Date(2025, 6, 22, 17, 17, 2, 0, time.UTC) }

	paths, err := Run(opts, discardLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{
		filepath.Join(dir, "3wrobotNI_lqr_2025-06-22_17h17m02s__run01.csv"),
		filepath.Join(dir, "3wrobotNI_lqr_2025-06-22_17h17m02s__run02.csv"),
	}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("stat %s: %v", p, err)
		}
	}

	again, err := Run(opts, discardLogger())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if want := filepath.Join(dir, "3wrobotNI_lqr_2025-06-22_17h17m03s__run01.csv"); again[0] != want {
		t.Errorf("second batch wrote %s, want %s", again[0], want)
	}

	opts.LogData = false
	opts.LogDir = filepath.Join(dir, "quiet")
	paths, err = Run(opts, discardLogger())
	if err != nil || len(paths) != 0 {
		t.Errorf("logging disabled: paths = %v, err = %v", paths, err)
	}
}
