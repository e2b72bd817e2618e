package experiment

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFloatText(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50, "50.0"},
		{0.1, "0.1"},
		{-1.5, "-1.5"},
		{0, "0.0"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		if got := Float(tt.in).String(); got != tt.want {
			t.Errorf("Float(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := Int(5).String(); got != "5" {
		t.Errorf("Int(5) = %q, want %q", got, "5")
	}
}

func TestParseNumberKeepsLiteral(t *testing.T) {
	n, err := ParseNumber(" 10.50 ")
	if err != nil {
		t.Fatalf("ParseNumber: %v", err)
	}
	if n.Text != "10.50" || n.Value != 10.5 {
		t.Errorf("ParseNumber = %+v, want Text 10.50 Value 10.5", n)
	}
	if _, err := ParseNumber("ten"); err == nil {
		t.Error("expected error for non-numeric literal")
	}
}

func TestConfigurationUnmarshalKeepsOrderAndText(t *testing.T) {
	src := `
Qf: [100, 100, 10]
Nactor: 5
R1_diag: [10, 10, 1, 1, 0.5]
`
	var cfg Configuration
	if err := yaml.Unmarshal([]byte(src), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	names := make([]string, len(cfg.Params))
	for i, p := range cfg.Params {
		names[i] = p.Name
	}
	if got := strings.Join(names, ","); got != "Qf,Nactor,R1_diag" {
		t.Errorf("param order = %s, want Qf,Nactor,R1_diag", got)
	}

	r1, ok := cfg.Param("R1_diag")
	if !ok {
		t.Fatal("R1_diag missing")
	}
	if got := r1.Joined(); got != "10 10 1 1 0.5" {
		t.Errorf("R1_diag joined = %q", got)
	}
	n, _ := cfg.Param("Nactor")
	if n.Sequence || n.Label() != "5" {
		t.Errorf("Nactor = %+v, want scalar labelled 5", n)
	}
	qf, _ := cfg.Param("Qf")
	if got := qf.Label(); got != "[100, 100, 10]" {
		t.Errorf("Qf label = %q", got)
	}
}

func TestConfigurationUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not a mapping", "[1, 2]"},
		{"text value", "k: fast"},
		{"nested list", "k: [[1, 2]]"},
		{"duplicate key", "k: 1\nk: 2"},
		{"mapping value", "k: {a: 1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Configuration
			if err := yaml.Unmarshal([]byte(tt.src), &cfg); err == nil {
				t.Errorf("expected error for %q", tt.src)
			}
		})
	}
}

func TestConfigurationMarshalRoundTrip(t *testing.T) {
	cfg := NewConfiguration(
		Scalar("Nactor", Int(20)),
		Seq("Q", Floats(50, 55, 80)...),
	)
	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(out); got != "Nactor: 20\nQ: [50.0, 55.0, 80.0]\n" {
		t.Errorf("Marshal = %q", got)
	}

	var back Configuration
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.String() != cfg.String() {
		t.Errorf("round trip = %s, want %s", back.String(), cfg.String())
	}
}

func TestLegendLabel(t *testing.T) {
	e, err := Preset(PresetLQR)
	if err != nil {
		t.Fatal(err)
	}
	if got := e.LegendLabel(0, true); got != "Run 1 - Q=[50.0, 55.0, 80.0], R=[10.0, 10.0]" {
		t.Errorf("detailed label = %q", got)
	}
	if got := e.LegendLabel(2, false); got != "Run 3" {
		t.Errorf("plain label = %q", got)
	}
	if got := e.LegendLabel(5, true); got != "Run 6" {
		t.Errorf("out of range label = %q", got)
	}

	m, err := Preset(PresetMPC)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.LegendLabel(1, true); got != "Run 2 - N=20" {
		t.Errorf("mpc label = %q", got)
	}
}
