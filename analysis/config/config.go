// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/awslabs/ar-go-absint/analysis/domain/numeric"
	"github.com/awslabs/ar-go-absint/internal/funcutil"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

const (
	// DefaultMachineIntDomain is the numerical domain used when none or an unknown one is specified
	DefaultMachineIntDomain = "interval"

	// DefaultPrecision is the precision used when none or an unknown one is specified
	DefaultPrecision = "memory"

	// DefaultMaxNarrowingIterations is the default bound on decreasing iterations. Zero is unbounded.
	DefaultMaxNarrowingIterations = 0
)

// Precisions lists the valid values of the precision option, from the least to the most precise
var Precisions = []string{"register", "pointer", "memory"}

// DefaultAnalyses is the list of checkers run when the configuration does not list any
var DefaultAnalyses = []string{"boa", "dbz", "nullity", "prover", "uva", "sio", "uaf"}

// IntrinsicKinds lists the valid kinds of intrinsic specifications
var IntrinsicKinds = []string{"assert", "heap-alloc", "free", "abort"}

// Config contains the options of the analyzer and the specifications of the functions with built-in semantics.
// If some field is not defined in the config file, it keeps its default value.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:"options"`

	sourceFile string

	// if the PkgFilter is specified
	pkgFilterRegex *regexp.Regexp

	// warnings are the problems found while normalizing the configuration
	warnings []string

	// Intrinsics maps Go functions to the built-in semantics of the analysis
	Intrinsics []IntrinsicSpec `yaml:"intrinsics"`

	// Exclude lists the functions that are lowered as declarations, and therefore never analyzed
	Exclude []CodeIdentifier `yaml:"exclude"`
}

// IntrinsicSpec gives the built-in semantics of the functions matching Function. Kind is one of IntrinsicKinds.
type IntrinsicSpec struct {
	Kind     string         `yaml:"kind"`
	Function CodeIdentifier `yaml:"function"`
}

// Options holds the options of the value analysis
type Options struct {
	// MachineIntDomain is the numerical abstract domain for machine integers: interval, congruence,
	// interval-congruence or constant
	MachineIntDomain string `yaml:"machine-int-domain"`

	// Narrowing enables the decreasing iterations of the fixpoint. It has no effect for domains without narrowing.
	Narrowing bool `yaml:"narrowing"`

	// MaxNarrowingIterations bounds the decreasing iterations on each loop head. Zero means no bound.
	MaxNarrowingIterations int `yaml:"max-narrowing-iterations"`

	// WideningHints enables the fixpoint profiler, which widens loop counters to the bounds they are compared with
	WideningHints bool `yaml:"widening-hints"`

	// Precision is the precision of the value analysis: register (integers), pointer (integers and pointers) or
	// memory (integers, pointers and memory contents)
	Precision string `yaml:"precision"`

	// Analyses lists the checkers to run on the invariants
	Analyses []string `yaml:"analyses"`

	// Jobs is the number of functions analyzed in parallel. Values <= 1 analyze sequentially.
	Jobs int `yaml:"jobs"`

	// ResultsFile is the file where the results database is saved, relative to the config file. Empty means no file.
	ResultsFile string `yaml:"results-file"`

	// PkgFilter restricts the analysis to the functions of the packages matching the filter
	PkgFilter string `yaml:"pkg-filter"`

	// UsePointerAnalysis runs the whole-program pointer analysis of the Go front-end and feeds its results to the
	// value analysis
	UsePointerAnalysis bool `yaml:"use-pointer-analysis"`

	// OverflowChecks makes the Go front-end mark integer arithmetic as overflow-checked, so that the overflow
	// checkers report the operations that may wrap around
	OverflowChecks bool `yaml:"overflow-checks"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// Suppress warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns the default configuration
func NewDefault() *Config {
	return &Config{
		Options: Options{
			MachineIntDomain:       DefaultMachineIntDomain,
			Narrowing:              true,
			MaxNarrowingIterations: DefaultMaxNarrowingIterations,
			WideningHints:          true,
			Precision:              DefaultPrecision,
			Analyses:               slices.Clone(DefaultAnalyses),
			Jobs:                   1,
			LogLevel:               int(InfoLevel),
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("could not load config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	return cfg, nil
}

// Parse reads a configuration from yaml contents
func Parse(contents []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize replaces invalid option values by their defaults, recording a warning for each, and compiles the
// regexes. It fails on invalid intrinsic specifications.
func (c *Config) normalize() error {
	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if c.LogLevel == 0 {
		c.LogLevel = int(InfoLevel)
	}

	c.MachineIntDomain = strings.ToLower(strings.TrimSpace(c.MachineIntDomain))
	if _, err := numeric.ParseKind(c.MachineIntDomain); err != nil {
		c.warnf("%v, using %s", err, DefaultMachineIntDomain)
		c.MachineIntDomain = DefaultMachineIntDomain
	}

	c.Precision = strings.ToLower(strings.TrimSpace(c.Precision))
	if !slices.Contains(Precisions, c.Precision) {
		c.warnf("unknown precision %q, using %s", c.Precision, DefaultPrecision)
		c.Precision = DefaultPrecision
	}

	if c.MaxNarrowingIterations < 0 {
		c.warnf("negative max-narrowing-iterations, using %d", DefaultMaxNarrowingIterations)
		c.MaxNarrowingIterations = DefaultMaxNarrowingIterations
	}

	if c.Jobs < 1 {
		c.Jobs = 1
	}

	c.Analyses = funcutil.Map(c.Analyses, func(s string) string { return strings.ToLower(strings.TrimSpace(s)) })

	if c.PkgFilter != "" {
		r, err := regexp.Compile(c.PkgFilter)
		if err == nil {
			c.pkgFilterRegex = r
		}
	}

	for i, spec := range c.Intrinsics {
		if !slices.Contains(IntrinsicKinds, spec.Kind) {
			return fmt.Errorf("invalid intrinsic kind %q, expected one of %s", spec.Kind,
				strings.Join(IntrinsicKinds, ", "))
		}
		c.Intrinsics[i].Function = CompileRegexes(spec.Function)
	}
	funcutil.MapInPlace(c.Exclude, CompileRegexes)
	return nil
}

func (c *Config) warnf(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// Warnings returns the problems found in the configuration file. Each was fixed by using a default value.
func (c Config) Warnings() []string {
	return c.warnings
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	if path.IsAbs(filename) {
		return filename
	}
	return path.Join(path.Dir(c.sourceFile), filename)
}

// ResultsPath returns the path of the results database file, or "" if results are not saved
func (c Config) ResultsPath() string {
	if c.ResultsFile == "" {
		return ""
	}
	return c.RelPath(c.ResultsFile)
}

// MatchPkgFilter returns true if the package name pkgname matches the package filter set in the config file. If no
// package filter has been set in the config file, the regex will match anything and return true. This function safely
// considers the case where a filter has been specified by the user, but it could not be compiled to a regex. The safe
// case is to check whether the package filter string is a prefix of the pkgname
func (c Config) MatchPkgFilter(pkgname string) bool {
	if c.pkgFilterRegex != nil {
		return c.pkgFilterRegex.MatchString(pkgname)
	} else if c.PkgFilter != "" {
		return strings.HasPrefix(pkgname, c.PkgFilter)
	} else {
		return true
	}
}

// IntrinsicOf returns the intrinsic kind of the function pkg.receiver.method, if it has one
func (c Config) IntrinsicOf(pkg, receiver, method string) (string, bool) {
	for _, spec := range c.Intrinsics {
		if spec.Function.Matches(pkg, receiver, method) {
			return spec.Kind, true
		}
	}
	return "", false
}

// IsExcluded returns true if the function pkg.receiver.method must not be analyzed
func (c Config) IsExcluded(pkg, receiver, method string) bool {
	return ExistsCid(c.Exclude, func(cid CodeIdentifier) bool { return cid.Matches(pkg, receiver, method) })
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}
