package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "krets.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDC(t *testing.T) {
	path := writeConfig(t, `
circuit_path = "divider.cir"

[analysis.dc]
source = "V1"
start = 0.0
stop = 5.0
step = 1.0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kind() != KindDC {
		t.Errorf("Kind = %q, want dc", cfg.Kind())
	}
	if cfg.Analysis.DC.Source != "V1" || cfg.Analysis.DC.Stop != 5 {
		t.Errorf("dc = %+v", cfg.Analysis.DC)
	}
}

func TestLoadACWithTolerancesAndOutput(t *testing.T) {
	path := writeConfig(t, `
circuit_path = "rc.cir"

[analysis.ac]
fstart = 1.0
fstop = 10e3
npoints = 40
scale = "dec"

[tolerances]
rel = 1e-4
max_iter = 50

[output]
csv = "out.csv"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kind() != KindAC {
		t.Errorf("Kind = %q, want ac", cfg.Kind())
	}
	if cfg.Tolerances.Rel != 1e-4 || cfg.Tolerances.MaxIter != 50 {
		t.Errorf("tolerances = %+v", cfg.Tolerances)
	}
	if cfg.Output.CSV != "out.csv" {
		t.Errorf("output = %+v", cfg.Output)
	}
}

func TestLoadTransient(t *testing.T) {
	path := writeConfig(t, `
circuit_path = "rl.cir"

[analysis.transient]
tstop = 5.0
tstep = 0.01
uic = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kind() != KindTransient {
		t.Errorf("Kind = %q", cfg.Kind())
	}
	if !cfg.Analysis.Transient.UIC {
		t.Error("uic not set")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing circuit_path",
			content: `
[analysis.op]
`,
		},
		{
			name: "no analysis",
			content: `
circuit_path = "a.cir"
`,
		},
		{
			name: "two analyses",
			content: `
circuit_path = "a.cir"

[analysis.op]

[analysis.dc]
source = "V1"
start = 0.0
stop = 1.0
step = 0.5
`,
		},
		{
			name: "unknown key",
			content: `
circuit_path = "a.cir"
bogus = 1

[analysis.op]
`,
		},
		{
			name: "bad ac scale",
			content: `
circuit_path = "a.cir"

[analysis.ac]
fstart = 1.0
fstop = 10.0
npoints = 5
scale = "oct"
`,
		},
		{
			name: "dc step wrong sign",
			content: `
circuit_path = "a.cir"

[analysis.dc]
source = "V1"
start = 0.0
stop = 5.0
step = -1.0
`,
		},
		{
			name: "transient zero step",
			content: `
circuit_path = "a.cir"

[analysis.transient]
tstop = 1.0
tstep = 0.0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
