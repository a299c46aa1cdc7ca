// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logctx adapts gnsbfgs.Logger's plain io.Writer contract to
// k8s.io/klog/v2 for cmd/gnsbfgs-fit, against a structured logging
// backend, since a standalone CLI binary is exactly the place that
// belongs — the library package itself keeps a dependency-free
// io.Writer Logger so embedding it never forces klog on a caller.
package logctx

import (
	"flag"

	"k8s.io/klog/v2"
)

// Level buckets verbosity into four tiers, renamed to klog's own
// verbosity vocabulary.
type Level int

const (
	// Noop suppresses all output.
	Noop Level = -1
	// Last prints only the terminal summary line.
	Last Level = 0
	// Eval and above: cmd/gnsbfgs-fit also turns on gnsbfgs's own
	// per-iteration lines; Logger itself prints only the terminal line.
	Eval Level = 1
	// Trace is the highest tier; Logger prints nothing beyond Eval here.
	Trace Level = 99
)

// Init registers klog's standard flags (-logtostderr, ...) on the given
// FlagSet, so cmd/gnsbfgs-fit's own flag.Parse also accepts them. A klog
// flag whose name fs already defines (cmd/gnsbfgs-fit's own -v) is skipped.
func Init(fs *flag.FlagSet) {
	kfs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(kfs)
	kfs.VisitAll(func(f *flag.Flag) {
		if fs.Lookup(f.Name) == nil {
			fs.Var(f.Value, f.Name, f.Usage)
		}
	})
}

// Logger writes gnsbfgs.Logger-shaped output through klog, gating writes
// by Level the way gnsbfgs's own Verbosity gates its plain writer.
type Logger struct {
	Level Level
}

func (l Logger) enabled(at Level) bool { return l.Level >= at }

// Exit logs the terminal status at Last level or above. Per-iteration
// detail is reported by gnsbfgs's own Verbose Logger directly (§6.6):
// logctx covers the CLI's structured, machine-parseable side of the
// same contract, not a duplicate of that human-readable trace.
func (l Logger) Exit(iter int, status string) {
	if !l.enabled(Last) {
		return
	}
	klog.Infof("gnsbfgs: stopped after %d iterations: %s", iter, status)
}

// Flush flushes klog's buffered writers; call before process exit.
func Flush() {
	klog.Flush()
}
