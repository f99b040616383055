// Package config loads the TOML run description: the circuit path, exactly
// one analysis table, optional Newton tolerances and optional output
// destinations.
package config

import (
	stderrors "errors"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// ErrConfig reports a missing or invalid configuration key, or an
// ambiguous analysis selection.
var ErrConfig = stderrors.New("config: invalid configuration")

// Analysis kinds.
const (
	KindOP        = "op"
	KindDC        = "dc"
	KindAC        = "ac"
	KindTransient = "transient"
)

type Config struct {
	CircuitPath string     `toml:"circuit_path"`
	Analysis    Analysis   `toml:"analysis"`
	Tolerances  Tolerances `toml:"tolerances"`
	Output      Output     `toml:"output"`
}

type Analysis struct {
	OP        *OPAnalysis        `toml:"op"`
	DC        *DCAnalysis        `toml:"dc"`
	AC        *ACAnalysis        `toml:"ac"`
	Transient *TransientAnalysis `toml:"transient"`
}

type OPAnalysis struct{}

type DCAnalysis struct {
	Source string  `toml:"source"`
	Start  float64 `toml:"start"`
	Stop   float64 `toml:"stop"`
	Step   float64 `toml:"step"`
}

type ACAnalysis struct {
	FStart  float64 `toml:"fstart"`
	FStop   float64 `toml:"fstop"`
	NPoints int     `toml:"npoints"`
	Scale   string  `toml:"scale"` // "lin" or "dec"
}

type TransientAnalysis struct {
	TStop  float64 `toml:"tstop"`
	TStep  float64 `toml:"tstep"`
	TStart float64 `toml:"tstart"`
	UIC    bool    `toml:"uic"`
}

// Tolerances override the Newton defaults; zero values keep them.
type Tolerances struct {
	Rel     float64 `toml:"rel"`
	VAbs    float64 `toml:"v_abs"`
	IAbs    float64 `toml:"i_abs"`
	MaxIter int     `toml:"max_iter"`
}

type Output struct {
	CSV  string `toml:"csv"`  // empty: CSV to stdout
	Plot string `toml:"plot"` // empty: no plot
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	var cfg Config

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(ErrConfig, "decoding %s: %v", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Wrapf(ErrConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Kind reports which analysis table is present.
func (c *Config) Kind() string {
	switch {
	case c.Analysis.OP != nil:
		return KindOP
	case c.Analysis.DC != nil:
		return KindDC
	case c.Analysis.AC != nil:
		return KindAC
	case c.Analysis.Transient != nil:
		return KindTransient
	default:
		return ""
	}
}

func (c *Config) validate() error {
	if c.CircuitPath == "" {
		return errors.Wrap(ErrConfig, "circuit_path is required")
	}

	count := 0
	if c.Analysis.OP != nil {
		count++
	}
	if c.Analysis.DC != nil {
		count++
	}
	if c.Analysis.AC != nil {
		count++
	}
	if c.Analysis.Transient != nil {
		count++
	}
	if count == 0 {
		return errors.Wrap(ErrConfig, "exactly one [analysis.<kind>] table is required")
	}
	if count > 1 {
		return errors.Wrap(ErrConfig, "more than one analysis table given")
	}

	if dc := c.Analysis.DC; dc != nil {
		if dc.Source == "" {
			return errors.Wrap(ErrConfig, "analysis.dc.source is required")
		}
		if dc.Step == 0 {
			return errors.Wrap(ErrConfig, "analysis.dc.step must be non-zero")
		}
		if (dc.Stop-dc.Start)*dc.Step < 0 {
			return errors.Wrap(ErrConfig, "analysis.dc.step has the wrong sign for the sweep range")
		}
	}

	if ac := c.Analysis.AC; ac != nil {
		if ac.NPoints < 1 {
			return errors.Wrap(ErrConfig, "analysis.ac.npoints must be at least 1")
		}
		switch ac.Scale {
		case "lin":
		case "dec":
			if ac.FStart <= 0 || ac.FStop <= 0 {
				return errors.Wrap(ErrConfig, "analysis.ac decade sweeps need positive fstart and fstop")
			}
		default:
			return errors.Wrapf(ErrConfig, "analysis.ac.scale must be \"lin\" or \"dec\", got %q", ac.Scale)
		}
		if ac.FStop < ac.FStart {
			return errors.Wrap(ErrConfig, "analysis.ac.fstop must not be below fstart")
		}
	}

	if tr := c.Analysis.Transient; tr != nil {
		if tr.TStop <= 0 {
			return errors.Wrap(ErrConfig, "analysis.transient.tstop must be positive")
		}
		if tr.TStep <= 0 {
			return errors.Wrap(ErrConfig, "analysis.transient.tstep must be positive")
		}
		if tr.TStart < 0 || tr.TStart > tr.TStop {
			return errors.Wrap(ErrConfig, "analysis.transient.tstart must lie in [0, tstop]")
		}
	}

	return nil
}
