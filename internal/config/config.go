// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the optional JSON termination settings file
// for cmd/gnsbfgs-fit, grounded on gomlx's commandline.ParseContextSettings
// (gomlx-gomlx/ui/commandline/contextsettings.go): read the whole file,
// wrap read/parse failures with github.com/pkg/errors, let defaults
// already set on the struct stand in for anything the file omits.
package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Termination holds the stopping criteria a fit run is configured with,
// independent of which model it is fitting.
type Termination struct {
	Tolerance float64 `json:"tolerance"`
	MaxIter   int     `json:"maxIter"`
}

// DefaultTermination sets MaxIter to 1000, gnsbfgs.Problem's own fallback,
// and Tolerance to 1e-8, since gnsbfgs.Problem has no default tolerance
// and requires one to be supplied.
func DefaultTermination() Termination {
	return Termination{Tolerance: 1e-8, MaxIter: 1000}
}

// Load reads a JSON file at path into a Termination, starting from
// DefaultTermination so a file that only overrides one field leaves the
// other at its default.
func Load(path string) (Termination, error) {
	t := DefaultTermination()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, errors.Wrapf(err, "config: reading %q", path)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, errors.Wrapf(err, "config: parsing %q", path)
	}
	if t.Tolerance <= 0 {
		return t, errors.Errorf("config: tolerance must be greater than 0, got %v", t.Tolerance)
	}
	return t, nil
}
