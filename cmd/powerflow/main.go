package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/edp1096/toy-powerflow/internal/consts"
	"github.com/edp1096/toy-powerflow/pkg/grid"
	"github.com/edp1096/toy-powerflow/pkg/matrix"
	"github.com/edp1096/toy-powerflow/pkg/network"
	"github.com/edp1096/toy-powerflow/pkg/solver"
	"github.com/edp1096/toy-powerflow/pkg/util"
)

var (
	verbose   = flag.Bool("v", false, "debug logging and matrix dump")
	workers   = flag.Int("workers", 1, "goroutines used for matrix assembly")
	backend   = flag.String("backend", "auto", "linear solver: auto, dense or sparse")
	tolerance = flag.Float64("tol", consts.DefaultTolerance, "backward-error tolerance of the solved angles")
	flows     = flag.Bool("flows", false, "print branch flows")
)

type solverConfig struct {
	workers   int
	backend   string
	tolerance float64
}

func newSolver(cfg solverConfig, log logrus.FieldLogger) (*solver.DCPowerFlow, error) {
	if cfg.workers < 1 {
		return nil, fmt.Errorf("-workers must be at least 1, got %d", cfg.workers)
	}
	if !(cfg.tolerance >= 0) {
		return nil, fmt.Errorf("-tol must be non-negative, got %g", cfg.tolerance)
	}

	opts := []solver.Option{
		solver.WithWorkers(cfg.workers),
		solver.WithTolerance(cfg.tolerance),
		solver.WithLogger(log),
	}
	switch cfg.backend {
	case "auto":
	case "dense":
		opts = append(opts, solver.WithBackend(matrix.NewDenseLU()))
	case "sparse":
		opts = append(opts, solver.WithBackend(matrix.NewSparseLU()))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.backend)
	}
	return solver.NewDCPowerFlow(opts...), nil
}

func printResults(w io.Writer, net *network.Network, baseMVA float64, state *grid.StateStore, res solver.Result, showFlows bool) error {
	topo := net.Topology()
	fmt.Fprintf(w, "\n%s: converged=%v iterations=%d residual=%.3e\n", net.Name(), res.Converged, res.Iterations, res.Residual)

	injected, err := solver.BusInjections(topo, state)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\nBus      Type   Angle          P")
	fmt.Fprintln(w, "------------------------------------------")
	angle := state.VoltageAngle()
	for i := 0; i < topo.BusCount(); i++ {
		bt, err := topo.BusType(grid.BusID(i))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-8d %-6s %s  %s\n", i, bt, util.FormatAngle(angle[i]), util.FormatPower(injected[i], baseMVA, "W"))
	}

	if !showFlows {
		return nil
	}
	fl, err := solver.BranchFlows(topo, state)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "\nBranch   From   To     P")
	fmt.Fprintln(w, "------------------------------------------")
	for _, f := range fl {
		fmt.Fprintf(w, "%-8d %-6d %-6d %s\n", f.Branch, f.From, f.To, util.FormatPower(f.P, baseMVA, "W"))
	}
	return nil
}

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		log.Fatal("Usage: powerflow [flags] <case.json|case.yaml>")
	}
	path := flag.Arg(0)

	// 1. Read case
	data, err := network.Load(path)
	if err != nil {
		log.WithError(err).Fatal("reading case")
	}

	// 2. Build network
	net, err := network.Build(data)
	if err != nil {
		log.WithError(err).Fatal("building network")
	}
	net.SetLogger(log)
	log.WithFields(logrus.Fields{
		"case":     path,
		"buses":    net.Topology().BusCount(),
		"branches": net.Topology().BranchCount(),
		"elements": len(net.Elements()),
	}).Info("network loaded")

	// 3. Solve
	s, err := newSolver(solverConfig{workers: *workers, backend: *backend, tolerance: *tolerance}, log)
	if err != nil {
		log.WithError(err).Fatal("configuring solver")
	}
	if *verbose {
		b, err := s.BuildBMatrix(net.Topology())
		if err != nil {
			log.WithError(err).Fatal("assembling B matrix")
		}
		b.Fprint(os.Stdout)
	}

	state, res, err := net.Solve(s)
	if err != nil {
		log.WithError(err).Fatal("solving")
	}

	// 4. Report
	if err := printResults(os.Stdout, net, data.BaseMVA, state, res, *flows); err != nil {
		log.WithError(err).Fatal("computing results")
	}
}
