// Command krets runs one circuit analysis described by a TOML
// configuration file and writes the result as CSV.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/prokie/krets/pkg/analysis"
	"github.com/prokie/krets/pkg/circuit"
	"github.com/prokie/krets/pkg/config"
	"github.com/prokie/krets/pkg/netlist"
	"github.com/prokie/krets/pkg/result"
	"github.com/prokie/krets/pkg/util"
)

func main() {
	cmd := &cobra.Command{
		Use:   "krets <config.toml>",
		Short: "SPICE-style circuit simulator",
		Long: `Krets simulates a lumped circuit netlist with modified nodal analysis.
The configuration file names the netlist and selects one analysis
(op, dc, ac or transient); results are written as CSV.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "krets: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	circuitPath := cfg.CircuitPath
	if !filepath.IsAbs(circuitPath) {
		circuitPath = filepath.Join(filepath.Dir(configPath), circuitPath)
	}

	content, err := os.ReadFile(circuitPath)
	if err != nil {
		return fmt.Errorf("reading netlist: %w", err)
	}

	elements, err := netlist.Parse(string(content))
	if err != nil {
		return err
	}

	isComplex := cfg.Kind() == config.KindAC
	ckt := circuit.New(filepath.Base(circuitPath), isComplex)
	defer ckt.Destroy()

	if err := ckt.Build(elements); err != nil {
		return err
	}

	an, err := newAnalysis(cfg)
	if err != nil {
		return err
	}

	if err := an.Setup(ckt); err != nil {
		return err
	}
	if err := an.Execute(); err != nil {
		return err
	}

	res := an.Results()
	if err := writeOutputs(cfg, res); err != nil {
		return err
	}

	printSummary(cfg, res)
	return nil
}

func newAnalysis(cfg *config.Config) (analysis.Analysis, error) {
	tol := mergeTolerances(cfg.Tolerances)

	switch cfg.Kind() {
	case config.KindOP:
		op := analysis.NewOP()
		op.SetTolerances(tol)
		return op, nil

	case config.KindDC:
		dc := cfg.Analysis.DC
		sweep := analysis.NewDCSweep(dc.Source, dc.Start, dc.Stop, dc.Step)
		sweep.SetTolerances(tol)
		return sweep, nil

	case config.KindAC:
		ac := cfg.Analysis.AC
		sweep := analysis.NewAC(ac.FStart, ac.FStop, ac.NPoints, ac.Scale)
		sweep.SetTolerances(tol)
		return sweep, nil

	case config.KindTransient:
		tr := cfg.Analysis.Transient
		tran := analysis.NewTransient(tr.TStart, tr.TStop, tr.TStep, tr.UIC)
		tran.SetTolerances(tol)
		return tran, nil

	default:
		return nil, fmt.Errorf("no analysis selected")
	}
}

func mergeTolerances(t config.Tolerances) analysis.Tolerances {
	tol := analysis.DefaultTolerances()
	if t.Rel > 0 {
		tol.Rel = t.Rel
	}
	if t.VAbs > 0 {
		tol.VAbs = t.VAbs
	}
	if t.IAbs > 0 {
		tol.IAbs = t.IAbs
	}
	if t.MaxIter > 0 {
		tol.MaxIter = t.MaxIter
	}
	return tol
}

func writeOutputs(cfg *config.Config, res *result.Result) error {
	if cfg.Output.CSV != "" {
		f, err := os.Create(cfg.Output.CSV)
		if err != nil {
			return fmt.Errorf("creating result file: %w", err)
		}
		defer f.Close()
		if err := res.WriteCSV(f); err != nil {
			return err
		}
	} else {
		if err := res.WriteCSV(os.Stdout); err != nil {
			return err
		}
	}

	if cfg.Output.Plot != "" {
		if err := res.WritePlot(cfg.Output.Plot); err != nil {
			return err
		}
	}

	return nil
}

func printSummary(cfg *config.Config, res *result.Result) {
	switch cfg.Kind() {
	case config.KindAC:
		ac := cfg.Analysis.AC
		fmt.Fprintf(os.Stderr, "ac: %d points, %s to %s\n",
			res.Len(), util.FormatFrequency(ac.FStart), util.FormatFrequency(ac.FStop))
	case config.KindTransient:
		tr := cfg.Analysis.Transient
		fmt.Fprintf(os.Stderr, "transient: %d points, tstop=%s\n",
			res.Len(), util.FormatValueFactor(tr.TStop, "s"))
	case config.KindDC:
		fmt.Fprintf(os.Stderr, "dc: %d points, swept %s\n", res.Len(), cfg.Analysis.DC.Source)
	default:
		fmt.Fprintf(os.Stderr, "op: %d variables\n", len(res.Labels()))
	}
}
