// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gnsbfgs-fit runs one Gauss–Newton/structured-BFGS fit from the
// command line: pick a residual model, optionally supply sample data and
// termination overrides, get back the fitted parameters and summary.
//
// Usage:
//
//	gnsbfgs-fit -model exp-decay -data samples.json -x0=1,1,1
//	gnsbfgs-fit -model rosenbrock -x0=-15.37,7.82,-11.04
//	gnsbfgs-fit -model linear -data rows.json -x0=0,0,0,0,0 -config term.json
//
// (-x0's value must use the "=" form when it starts with "-": the flag
// package otherwise reads a leading negative number as the next flag.)
//
// Grounded on janpfeifer-go-highway/cmd/hwygen/main.go's shape: package-
// level flag vars, a required-flag check that prints usage and exits
// non-zero, and a Run() error-returning driver invoked from main.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/curioloop/gnsbfgs/gnsbfgs"
	"github.com/curioloop/gnsbfgs/internal/config"
	"github.com/curioloop/gnsbfgs/internal/logctx"
)

var (
	model      = flag.String("model", "", "Residual model (required): exp-decay, linear, rosenbrock")
	dataPath   = flag.String("data", "", "Path to a JSON sample file (required for exp-decay and linear)")
	configPath = flag.String("config", "", "Path to a JSON termination-override file (optional)")
	x0Flag     = flag.String("x0", "", "Comma-separated initial guess (required)")
	verbosity  = flag.Int("v", 0, "0 = silent, 1 = per-iteration log lines")
)

func main() {
	logctx.Init(flag.CommandLine)
	flag.Parse()

	if *model == "" || *x0Flag == "" {
		fmt.Fprintf(os.Stderr, "Error: -model and -x0 are required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	x0, err := parseFloats(*x0Flag)
	if err != nil {
		return fmt.Errorf("parsing -x0: %w", err)
	}

	term, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	residuals, err := buildResiduals(*model, *dataPath, len(x0))
	if err != nil {
		return err
	}

	logger := logctx.Logger{Level: logctx.Level(*verbosity)}

	p := gnsbfgs.Problem[float64]{
		N:         len(x0),
		Tolerance: term.Tolerance,
		MaxIter:   term.MaxIter,
		Residuals: residuals,
		Verbosity: verbosityFrom(*verbosity),
	}
	opt, err := p.New()
	if err != nil {
		return err
	}

	w := opt.Init()
	res := opt.Fit(x0, w)
	logger.Exit(res.NumIter, res.Status.String())
	logctx.Flush()

	fmt.Printf("status: %s (iterations: %d, evaluations: %d)\n", res.Status, res.NumIter, res.NumEval)
	fmt.Printf("x: %v\n", res.X)
	if !res.OK {
		return fmt.Errorf("fit did not converge: %s", res.Status)
	}
	return nil
}

func verbosityFrom(v int) gnsbfgs.Verbosity {
	if v > 0 {
		return gnsbfgs.Verbose
	}
	return gnsbfgs.Silent
}

func buildResiduals(modelName, dataPath string, n int) ([]gnsbfgs.Residual[float64], error) {
	switch modelName {
	case "rosenbrock":
		if n != 3 {
			return nil, fmt.Errorf("rosenbrock model requires exactly 3 parameters, got %d", n)
		}
		return []gnsbfgs.Residual[float64]{rosenbrockResidual()}, nil

	case "exp-decay":
		samples, err := loadSamples(dataPath)
		if err != nil {
			return nil, err
		}
		out := make([]gnsbfgs.Residual[float64], len(samples))
		for i, s := range samples {
			if len(s.X) != 1 {
				return nil, fmt.Errorf("exp-decay sample %d: expected 1 feature, got %d", i, len(s.X))
			}
			out[i] = expDecayResidual(s.X[0], s.Y)
		}
		return out, nil

	case "linear":
		samples, err := loadSamples(dataPath)
		if err != nil {
			return nil, err
		}
		out := make([]gnsbfgs.Residual[float64], len(samples))
		for i, s := range samples {
			if len(s.X) != n {
				return nil, fmt.Errorf("linear sample %d: expected %d features, got %d", i, n, len(s.X))
			}
			out[i] = linearResidual(s.X, s.Y)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown model %q (want exp-decay, linear, or rosenbrock)", modelName)
	}
}

func loadSamples(path string) ([]Sample, error) {
	if path == "" {
		return nil, fmt.Errorf("-data is required for this model")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return samples, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
