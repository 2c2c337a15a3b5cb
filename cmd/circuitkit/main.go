package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/circuitkit/internal/config"
	"github.com/edp1096/circuitkit/internal/logging"
	"github.com/edp1096/circuitkit/pkg/analysis"
	"github.com/edp1096/circuitkit/pkg/bode"
	"github.com/edp1096/circuitkit/pkg/circuit"
	"github.com/edp1096/circuitkit/pkg/netlist"
	"github.com/edp1096/circuitkit/pkg/util"
)

var (
	configPath = flag.String("config", "", "YAML settings file")
	plotPath   = flag.String("plot", "", "write a Bode plot of the sweep (png, svg, pdf)")
	nodes      = flag.String("node", "", "comma separated signals to plot, e.g. V(out),I(R1)")
	reference  = flag.String("ref", "", "plot the selected signals relative to this one, e.g. V(in)")
	sweep      = flag.Bool("sweep", false, "run the configured AC sweep when the netlist has no .ac line")
	verbose    = flag.Bool("v", false, "print the assembled equations and debug logs")
)

func printResults(results map[string][]float64) {
	fmt.Println("\nAnalysis Results:")
	fmt.Println("================")

	names := analysis.Variables(results)
	freqs := results["FREQ"]

	if len(freqs) == 1 {
		fmt.Printf("\nSteady state at %s:\n", strings.TrimSpace(util.FormatFrequency(freqs[0])))
		for _, name := range names {
			unit := "V"
			if strings.HasPrefix(name, "I(") {
				unit = "A"
			}
			mag, phase := results[name+"_MAG"][0], results[name+"_PHASE"][0]
			fmt.Printf("%s = %s\n", name, util.FormatPhasor(mag, util.DegreesToRadians(phase), unit))
		}
		return
	}

	fmt.Printf("\nAC Analysis Results (%d frequency points):\n", len(freqs))
	fmt.Println("Frequency      Node Voltages (Magnitude/Phase)        Branch Currents (Magnitude/Phase)")
	fmt.Println("-----------------------------------------------------------------------------")
	for i, freq := range freqs {
		fmt.Printf("%-13s", util.FormatFrequency(freq))
		for _, name := range names {
			fmt.Printf("%s  ", util.FormatMagnitudePhase(name, results[name+"_MAG"][i], results[name+"_PHASE"][i]))
		}
		fmt.Println()
	}
}

func selectAnalysis(design *netlist.Design, cfg *config.Config) analysis.Analysis {
	data := design.Data
	switch {
	case data.Analysis == netlist.AnalysisAC:
		param := data.ACParam
		return analysis.NewAC(param.FStart, param.FStop, param.Points, param.Sweep)
	case *sweep:
		s := cfg.Sweep
		return analysis.NewAC(s.FStart, s.FStop, s.Points, s.Type)
	}
	return analysis.NewSteadyState()
}

func writePlot(results map[string][]float64, cfg *config.Config) error {
	if len(results["FREQ"]) < 2 {
		return fmt.Errorf("a Bode plot needs an AC sweep, use .ac or -sweep")
	}

	var signals []string
	if *nodes != "" {
		for _, s := range strings.Split(*nodes, ",") {
			signals = append(signals, strings.TrimSpace(s))
		}
	} else {
		for _, name := range analysis.Variables(results) {
			if strings.HasPrefix(name, "V(") {
				signals = append(signals, name)
			}
		}
	}

	var series []bode.Series
	for _, name := range signals {
		var s bode.Series
		var err error
		if *reference != "" {
			s, err = bode.Transfer(results, *reference, name)
		} else {
			s, err = bode.FromResults(results, name)
		}
		if err != nil {
			return err
		}
		series = append(series, s)
	}

	opts := bode.Options{
		Title:  cfg.Plot.Title,
		Width:  vg.Length(cfg.Plot.Width) * vg.Centimeter,
		Height: vg.Length(cfg.Plot.Height) * vg.Centimeter,
	}
	return bode.Save(*plotPath, opts, series...)
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("Usage: circuitkit [flags] <netlist_file>")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer logger.Sync()

	design, err := netlist.Load(flag.Arg(0))
	if err != nil {
		logger.Fatal("loading netlist", zap.String("path", flag.Arg(0)), zap.Error(err))
	}
	logger.Info("netlist loaded",
		zap.String("title", design.Title),
		zap.Int("nodes", len(design.NodeNames)),
		zap.Int("devices", len(design.Devices)))

	opts := []circuit.Option{
		circuit.WithLogger(logger),
		circuit.WithTolerance(cfg.Solver.Tolerance),
		circuit.WithSingularityRatio(cfg.Solver.SingularityRatio),
	}
	if *verbose {
		opts = append(opts, circuit.WithEquationWriter(os.Stdout))
	}
	ckt, err := design.Circuit(opts...)
	if err != nil {
		logger.Fatal("building circuit", zap.Error(err))
	}

	analyzer := selectAnalysis(design, cfg)
	if err := analyzer.Setup(ckt); err != nil {
		logger.Fatal("analysis setup failed", zap.Error(err))
	}
	if a, ok := analyzer.(interface{ SetLogger(*zap.Logger) }); ok {
		a.SetLogger(logger)
	}
	if err := analyzer.Execute(); err != nil {
		logger.Fatal("analysis execution failed", zap.Error(err))
	}

	results := analyzer.GetResults()
	printResults(results)

	if *plotPath != "" {
		if err := writePlot(results, cfg); err != nil {
			logger.Fatal("writing plot", zap.String("path", *plotPath), zap.Error(err))
		}
		logger.Info("plot written", zap.String("path", *plotPath))
	}
}
